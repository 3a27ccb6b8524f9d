package kvcache

import "go.trai.ch/hoard/internal/core/domain"

// element is one entry together with its position in the recency list.
type element struct {
	entry domain.CacheEntry
	prev  *element
	next  *element
}

// recencyList orders entries by last access. The head is the most recently used entry,
// the tail the least recently used one.
type recencyList struct {
	head *element
	tail *element
}

func (l *recencyList) pushFront(e *element) {
	e.prev = nil
	e.next = l.head
	if l.head != nil {
		l.head.prev = e
	}
	l.head = e
	if l.tail == nil {
		l.tail = e
	}
}

func (l *recencyList) remove(e *element) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		l.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		l.tail = e.prev
	}
	e.prev = nil
	e.next = nil
}

func (l *recencyList) moveToFront(e *element) {
	if l.head == e {
		return
	}
	l.remove(e)
	l.pushFront(e)
}

// back returns the least recently used element, or nil when the list is empty.
func (l *recencyList) back() *element {
	return l.tail
}
