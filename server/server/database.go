package server

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/derktes/rf-signal-collector/pulsecode"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// listenerBuffer is how many events a slow subscriber may lag behind
// before events are dropped for it.
const listenerBuffer = 16

var errNotFound = errors.New("not found")

type codeListener struct {
	subscriber  string
	newCodeChan chan newCodeEvent
}

type codeDatabase struct {
	store       map[string]*codeStore
	listeners   []codeListener
	recent      *lru.Cache[string, newCodeEvent]
	opts        pulsecode.Options
	maxCaptures int
}

type codeCRUD interface {
	insert(pTaggedCapture taggedCapture) (newCodeEvent, error)
	getCollectorIDList() ([]string, error)
	getProtocolIDList(pCollectorID string) ([]protocolID, error)
	getKeys(pCollectorID string, pProtocolID protocolID) ([]string, error)
	getEntry(pCollectorID string, key string) (*codeEntry, error)
}

type codeNotifier interface {
	notify(subscriber string) (<-chan newCodeEvent, error)
	unNotify(subscriber string) error
	replay() []newCodeEvent
}

func newDatabase(opts pulsecode.Options, maxCaptures, recentEvents int) (*codeDatabase, error) {
	recent, err := lru.New[string, newCodeEvent](recentEvents)
	if err != nil {
		return nil, fmt.Errorf("failed to create recent event cache: %w", err)
	}
	return &codeDatabase{
		store:       make(map[string]*codeStore),
		recent:      recent,
		opts:        opts,
		maxCaptures: maxCaptures,
	}, nil
}

func (db *codeDatabase) notify(subscriber string) (<-chan newCodeEvent, error) {
	for _, l := range db.listeners {
		if l.subscriber == subscriber {
			return nil, fmt.Errorf("Subscriber '%s' already registered", subscriber)
		}
	}
	db.listeners = append(db.listeners, codeListener{subscriber, make(chan newCodeEvent, listenerBuffer)})
	return db.listeners[len(db.listeners)-1].newCodeChan, nil
}

func (db *codeDatabase) unNotify(subscriber string) error {
	for i, l := range db.listeners {
		if l.subscriber == subscriber {
			db.listeners = append(db.listeners[:i], db.listeners[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("Subscriber '%s' cannot be found: %w", subscriber, errNotFound)
}

// replay returns the recently inserted events, oldest first.
func (db *codeDatabase) replay() []newCodeEvent {
	return db.recent.Values()
}

func (db *codeDatabase) insert(pTaggedCapture taggedCapture) (newCodeEvent, error) {
	if err := pTaggedCapture.validate(); err != nil {
		return newCodeEvent{}, err
	}
	decoded, err := decodeCapture(&pTaggedCapture, db.opts)
	if err != nil {
		return newCodeEvent{}, err
	}
	codes, collectorIDOk := db.store[pTaggedCapture.CollectorID]
	if !collectorIDOk {
		log.Printf("Collector ID '%s' not found. Creating new entry.", pTaggedCapture.CollectorID)
		codes = newCodeStore(db.opts, db.maxCaptures)
		db.store[pTaggedCapture.CollectorID] = codes
	}
	log.Printf("Inserting %v.", pTaggedCapture.getRawPulses())
	entry, created := codes.add(decoded)
	if created {
		log.Printf("%s > %s > %s is a new code", pTaggedCapture.CollectorID, entry.Protocol, entry.Key)
	}
	log.Printf("%s > %s > %s now has %d captures", pTaggedCapture.CollectorID, entry.Protocol, entry.Key, entry.Count)

	notif := newCodeEvent{
		ID:          uuid.NewString(),
		CollectorID: pTaggedCapture.CollectorID,
		ProtocolID:  entry.Protocol.String(),
		Key:         entry.Key,
		Bits:        entry.Bits,
		New:         created,
		Code:        decoded.code,
		Received:    time.Now().UTC(),
	}
	db.recent.Add(notif.ID, notif)
	for _, l := range db.listeners {
		select {
		case l.newCodeChan <- notif:
		default:
			log.Printf("Subscriber '%s' is lagging, dropping event %s", l.subscriber, notif.ID)
		}
	}
	return notif, nil
}

func (db *codeDatabase) getCollectorIDList() ([]string, error) {
	collectorIDList := make([]string, 0, len(db.store))
	for cid := range db.store {
		collectorIDList = append(collectorIDList, cid)
	}
	sort.Strings(collectorIDList)
	return collectorIDList, nil
}

func (db *codeDatabase) getProtocolIDList(pCollectorID string) ([]protocolID, error) {
	codes, collectorIDOk := db.store[pCollectorID]
	if !collectorIDOk {
		return nil, fmt.Errorf("Collector ID '%s' cannot be found: %w", pCollectorID, errNotFound)
	}
	return codes.protocols(), nil
}

func (db *codeDatabase) getKeys(pCollectorID string, pProtocolID protocolID) ([]string, error) {
	codes, collectorIDOk := db.store[pCollectorID]
	if !collectorIDOk {
		return nil, fmt.Errorf("Collector ID '%s' cannot be found: %w", pCollectorID, errNotFound)
	}
	keys := codes.keys(pProtocolID)
	if len(keys) == 0 {
		return nil, fmt.Errorf("Protocol ID '%s' cannot be found: %w", pProtocolID, errNotFound)
	}
	return keys, nil
}

func (db *codeDatabase) getEntry(pCollectorID string, key string) (*codeEntry, error) {
	codes, collectorIDOk := db.store[pCollectorID]
	if !collectorIDOk {
		return nil, fmt.Errorf("Collector ID '%s' cannot be found: %w", pCollectorID, errNotFound)
	}
	entry, keyOk := codes.get(key)
	if !keyOk {
		return nil, fmt.Errorf("Key '%s' cannot be found: %w", key, errNotFound)
	}
	return entry, nil
}

// codeCount is the number of distinct codes stored for a collector, zero
// for an unknown one.
func (db *codeDatabase) codeCount(pCollectorID string) int {
	codes, collectorIDOk := db.store[pCollectorID]
	if !collectorIDOk {
		return 0
	}
	return len(codes.entries)
}

var (
	_ codeCRUD     = (*codeDatabase)(nil)
	_ codeNotifier = (*codeDatabase)(nil)
)
