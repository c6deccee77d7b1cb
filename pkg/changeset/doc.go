/*
Package changeset holds the change records produced by comparing two
configuration trees, and consumed when replaying those changes onto
the configuration of another environment.

A record addresses a value inside one root entity (a service) by a
path of segments. Map keys are joined with a separator (`//` unless
configured otherwise) and list indices are written after the key they
belong to, as in `containers[0]//image`. Root-level records, which add
or remove a whole entity, have an empty path.

Values are written as indented JSON, so that they can be edited by
hand and read back; text that isn't JSON is taken as a plain string.
*/
package changeset
