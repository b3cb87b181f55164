// Package checkin redeems scanned tickets against eventyay and prints the
// attendee's badge once the server has generated it.
//
// An Orchestrator owns a Session that a presentation layer reads or
// subscribes to. CheckIn resolves the event's check-in lists, redeems the
// ticket with a fresh nonce and records success or failure; PrintBadge
// polls the badge download at a fixed interval for a bounded number of
// attempts and hands the document to a Printer. Neither returns attempt
// failures: they surface as StatusError in the Session.
package checkin
