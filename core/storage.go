package core

import (
	"errors"
	"fmt"
)

var ErrStoreClosed = errors.New("store closed")

type Storager[K comparable, V any] interface {
	Put(K, V) error
	Get(K) (V, error)
	Has(K) bool
	Len() int
	Close() error
}

// MemStore serializes all access through a single goroutine that owns the
// map.
type MemStore[K comparable, V any] struct {
	putChan  chan *putRequest[K, V]
	readChan chan *getRequest[K, V]
	lenChan  chan chan int
	quitChan chan struct{}
	doneChan chan struct{}
	data     map[K]V
}

type putRequest[K comparable, V any] struct {
	key K
	val V
}

type getRequest[K comparable, V any] struct {
	key      K
	response chan<- *lookupResult[V]
}

type lookupResult[V any] struct {
	val    V
	exists bool
}

func NewMemStore[K comparable, V any]() *MemStore[K, V] {
	s := &MemStore[K, V]{
		putChan:  make(chan *putRequest[K, V]),
		readChan: make(chan *getRequest[K, V]),
		lenChan:  make(chan chan int),
		quitChan: make(chan struct{}),
		doneChan: make(chan struct{}),
		data:     make(map[K]V),
	}

	go s.handleAccess()
	return s
}

func (s *MemStore[K, V]) handleAccess() {
	defer close(s.doneChan)
	for {
		select {
		case req := <-s.putChan:
			s.data[req.key] = req.val
		case req := <-s.readChan:
			v, ok := s.data[req.key]
			req.response <- &lookupResult[V]{
				val:    v,
				exists: ok,
			}
		case resp := <-s.lenChan:
			resp <- len(s.data)
		case <-s.quitChan:
			return
		}
	}
}

func (s *MemStore[K, V]) Put(k K, v V) error {
	select {
	case s.putChan <- &putRequest[K, V]{key: k, val: v}:
		return nil
	case <-s.doneChan:
		return ErrStoreClosed
	}
}

func (s *MemStore[K, V]) lookup(k K) (*lookupResult[V], error) {
	respCh := make(chan *lookupResult[V], 1)
	req := &getRequest[K, V]{
		key:      k,
		response: respCh,
	}
	select {
	case s.readChan <- req:
		return <-respCh, nil
	case <-s.doneChan:
		return nil, ErrStoreClosed
	}
}

func (s *MemStore[K, V]) Get(k K) (V, error) {
	var empty V
	resp, err := s.lookup(k)
	if err != nil {
		return empty, err
	}
	if !resp.exists {
		return empty, fmt.Errorf("key %v does not exist in store", k)
	}
	return resp.val, nil
}

func (s *MemStore[K, V]) Has(k K) bool {
	resp, err := s.lookup(k)
	return err == nil && resp.exists
}

func (s *MemStore[K, V]) Len() int {
	resp := make(chan int, 1)
	select {
	case s.lenChan <- resp:
		return <-resp
	case <-s.doneChan:
		return 0
	}
}

// Close stops the access goroutine. Calls after the first are no-ops.
func (s *MemStore[K, V]) Close() error {
	select {
	case <-s.doneChan:
	case s.quitChan <- struct{}{}:
		<-s.doneChan
	}
	return nil
}
