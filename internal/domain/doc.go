// Package domain models heat-risk forecasts, location candidates and the
// subscriber request workflow.
//
// # Risk Tiers
//
// Temperatures in degrees Celsius map onto four ordered tiers. Boundary
// values belong to the higher tier:
//
//	< 32        Low
//	32 to < 36  Moderate
//	36 to < 40  High
//	>= 40       Extreme
//
// [Classify] is total. NaN and negative infinity classify as Low.
//
// # Locations
//
// A [LocationCandidate] is identified by its (latitude, longitude) pair. One
// result set never holds two candidates with the same identity; providers
// that return duplicates are passed through [DedupeCandidates].
//
// # Request Lifecycle
//
// A [SubscriberRequest] moves forward only:
//
//	PENDING --reply--> GENERATED --reply--> GENERATED --send--> SENT
//
// SENT is terminal. A failed reply leaves the request untouched. Request IDs
// are UUIDv7 strings so lexical order follows creation time.
//
// # Contacts
//
// A contact is either an email address (something@something.tld, no
// whitespace) or a phone number: optional leading "+" or "0", then digits,
// spaces and hyphens, with at least seven digits in total.
//
// # Errors
//
// Components return the sentinel errors in errors.go wrapped with context.
// Match them with errors.Is.
package domain
