// Package record implements the encrypted record layer of a Salt Channel
// session.
//
// A record is the secretbox of one application message under the session's
// shared key. The nonce is never sent: each side derives it from a per
// direction counter. Client-to-server counters start at 0 and
// server-to-client counters start at 2^63, so the two sequences cannot
// meet. A record that fails to authenticate, for whatever reason including
// reordering or replay, poisons the codec for good.
package record
