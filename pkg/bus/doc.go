// Package bus provides the master/slave exchange channel.
package bus

// The bus carries exactly one operation: the master issues a bounded
// read to an addressed slave and the slave answers with the bytes of
// its current record fragment. There is no write path and no framing
// beyond the byte cap and NUL terminator; robustness comes from the
// master's cycle-level retry (the next poll cycle re-reads every
// slave) rather than from per-request recovery.
//
// Producer: slave devices (via Responder)
// Consumer: the bus master
