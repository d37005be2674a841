/*
Package session runs chat sessions on top of the pipeline.

A Manager serialises the runs of each session with ref-counted local locks
and, when configured, a distributed lock shared between replicas. Every run
is appended to the session's conversation in a ports.HistoryStore.
*/
package session
