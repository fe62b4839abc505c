// Package notify delivers human-readable status updates about requests to the
// chat front end. The front end exposes one webhook per surface (the review
// channel and the originating channel) and maps announcements onto whatever
// transport it uses, including updating or disabling earlier interactive
// postings via the returned posting reference.
package notify
