// Package mail decouples email delivery from the login path. OTP and
// welcome sends are enqueued onto a bounded channel and executed by a
// worker with a per-send timeout, so a slow mail sink can never stall
// authentication. Delivery failures are counted and reported to a hook,
// never returned to the enqueuing caller.
package mail
