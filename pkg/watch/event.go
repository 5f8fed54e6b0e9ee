// Package watch implements the watch-stream reader and the durable,
// self-resuming watcher built on top of pkg/request (spec.md §4.G,
// §4.H), grounded on this corpus's client-go-adjacent watch handling
// (k8s.io/apimachinery/pkg/watch event shapes) and on the teacher's
// reconnect-loop style in pkg/kubernetes/watch.go.
package watch

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// EventType is the wire-level watch event discriminator.
type EventType string

const (
	Added    EventType = "ADDED"
	Modified EventType = "MODIFIED"
	Deleted  EventType = "DELETED"
	Bookmark EventType = "BOOKMARK"
	Error    EventType = "ERROR"
)

// Object is the minimal shape the watcher needs from a decoded item: its
// resource version, so the watcher can track where to resume from.
// Every generated k8s.io/api type satisfies this through its embedded
// ObjectMeta.
type Object interface {
	GetResourceVersion() string
}

// WatchEvent is one frame off the wire, decoded as T unless Type is
// Error, in which case Status carries the decoded metav1.Status and
// Object is the zero value.
type WatchEvent[T Object] struct {
	Type   EventType
	Object T
	Status *metav1.Status
}
