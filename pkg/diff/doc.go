/*
Package diff compares configuration trees and produces the change
records that describe how to get from one to the other.

Maps are compared key by key and descended into. Lists whose items
are all maps carrying an identity field (by default `name`) are
compared by identity, so that reordering them is not a change; other
lists are compared position by position. Anything else is compared as
a value, and a node that changes kind is reported as modified, without
descending further.
*/
package diff
