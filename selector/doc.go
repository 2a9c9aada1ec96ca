// Package selector scores registered agents against a message and picks
// the best candidate when a dispatch names no explicit targets and the
// message carries no mentions.
//
// The score blends three signals: how confidently the agent advertises
// the capabilities the message calls for, the agent's historical success
// rate, and a small bonus for being idle right now. The blend weights
// are configurable; the defaults favor capability fit.
package selector
