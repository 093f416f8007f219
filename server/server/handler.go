package server

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/derktes/rf-signal-collector/pulsecode"
	"github.com/prometheus/client_golang/prometheus"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// collectorServer owns the code database. The database is handed between
// handlers through dbLock, which holds it whenever nobody is using it.
type collectorServer struct {
	dbLock  chan *codeDatabase
	config  Config
	metrics *decoderMetrics
}

func newCollectorServer(config Config) (*collectorServer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	db, err := newDatabase(config.Decoder, config.MaxCaptures, config.RecentEvents)
	if err != nil {
		return nil, err
	}
	s := &collectorServer{
		dbLock:  make(chan *codeDatabase, 1),
		config:  config,
		metrics: newDecoderMetrics(),
	}
	s.dbLock <- db
	return s, nil
}

func (s *collectorServer) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/rf/capture", s.captureQueryHandler)
	mux.HandleFunc("/rf/collectors", s.collectorQueryHandler)
	mux.HandleFunc("/rf/code/", s.codeQueryHandler)
	mux.HandleFunc("/rf/encode", s.encodeHandler)
	mux.HandleFunc("/rf/stream", s.codeStreamHandler)
	mux.Handle("/metrics", s.metrics.handler())
	return mux
}

func (s *collectorServer) codeStreamHandler(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: s.config.OriginPatterns})
	if err != nil {
		log.Print(err)
		return
	}
	log.Printf("Accepted websocket request from %s", r.RemoteAddr)
	defer log.Printf("Closing websocket connection for %s", r.RemoteAddr)
	defer c.Close(websocket.StatusNormalClosure, "Handler exits")
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	subscriber := getSubscriberID(r.RemoteAddr)
	db := <-s.dbLock
	var notifier codeNotifier = db
	onNewCode, err := notifier.notify(subscriber)
	backlog := notifier.replay()
	s.dbLock <- db
	if err != nil {
		if s.config.Debug {
			log.Print(err)
		}
		c.Close(websocket.StatusPolicyViolation, "Already subscribed")
		return
	}
	s.metrics.subscribers.Inc()
	defer func() {
		s.metrics.subscribers.Dec()
		db := <-s.dbLock
		if err := db.unNotify(subscriber); err != nil && s.config.Debug {
			log.Print(err)
		}
		s.dbLock <- db
	}()

	ctx = c.CloseRead(ctx)
	for _, e := range backlog {
		if err := writeCodeEvent(ctx, c, e); err != nil {
			log.Print(err)
			return
		}
	}
	timer := time.NewTimer(s.config.StreamTimeout)
	defer timer.Stop()
	for {
		select {
		case e := <-onNewCode:
			if err := writeCodeEvent(ctx, c, e); err != nil {
				log.Print(err)
				return
			}
		case <-timer.C:
			c.Close(websocket.StatusNormalClosure, "Stream timed out")
			return
		case <-ctx.Done():
			if s.config.Debug {
				log.Print(ctx.Err())
			}
			return
		}
	}
}

func (s *collectorServer) collectorQueryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	db := <-s.dbLock
	defer func() { s.dbLock <- db }()
	collectorIDList, err := db.getCollectorIDList()
	if err != nil {
		log.Print(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, collectorIDList)
}

func (s *collectorServer) captureQueryHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.insertCapture(w, r)
	case http.MethodGet:
		s.summarizeCodes(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *collectorServer) insertCapture(w http.ResponseWriter, r *http.Request) {
	taggedCaptureJSON, err := io.ReadAll(r.Body)
	if err != nil {
		log.Println("Error reading from request body.", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	var theTaggedCapture taggedCapture
	if err := json.Unmarshal(taggedCaptureJSON, &theTaggedCapture); err != nil {
		log.Println("Error unmarshaling.", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if s.config.Debug {
		log.Printf("Unmarshalled -> %+v\n", theTaggedCapture)
	}

	db := <-s.dbLock
	timer := prometheus.NewTimer(s.metrics.decodeSeconds)
	notif, err := db.insert(theTaggedCapture)
	timer.ObserveDuration()
	codeCount := db.codeCount(theTaggedCapture.CollectorID)
	s.dbLock <- db

	if err != nil {
		log.Printf("Capture from '%s' rejected: %v", theTaggedCapture.CollectorID, err)
		if isDecodeError(err) {
			s.metrics.captures.WithLabelValues(theTaggedCapture.CollectorID, resultRejected).Inc()
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		s.metrics.captures.WithLabelValues(theTaggedCapture.CollectorID, resultInvalid).Inc()
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	result := resultMatched
	status := http.StatusOK
	if notif.New {
		result = resultNew
		status = http.StatusCreated
	}
	s.metrics.captures.WithLabelValues(notif.CollectorID, result).Inc()
	s.metrics.codes.WithLabelValues(notif.CollectorID).Set(float64(codeCount))
	writeJSON(w, status, notif)
}

func (s *collectorServer) summarizeCodes(w http.ResponseWriter, r *http.Request) {
	db := <-s.dbLock
	defer func() { s.dbLock <- db }()
	var collectorIDList []string
	if c := r.URL.Query().Get("cid"); c != "" {
		collectorIDList = append(collectorIDList, c)
	} else {
		cList, err := db.getCollectorIDList()
		if err != nil {
			log.Println(err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		collectorIDList = cList
	}
	collector2code := make(simpleCollectorCodeMap)
	for _, cid := range collectorIDList {
		protocolIDList, err := db.getProtocolIDList(cid)
		if err != nil {
			log.Println(err)
			w.WriteHeader(statusFor(err))
			return
		}
		l := make(simpleCodeSummaryList, 0)
		for _, pid := range protocolIDList {
			keys, err := db.getKeys(cid, pid)
			if err != nil {
				log.Println(err)
				w.WriteHeader(statusFor(err))
				return
			}
			for _, key := range keys {
				entry, err := db.getEntry(cid, key)
				if err != nil {
					log.Println(err)
					w.WriteHeader(statusFor(err))
					return
				}
				l = append(l, simpleCodeSummary{entry.Key, entry.Protocol.String(), entry.Bits, entry.Count})
			}
		}
		collector2code[cid] = l
	}
	writeJSON(w, http.StatusOK, collector2code)
}

// URL patterns: [
//   /rf/code/collectorID
//   /rf/code/collectorID/protocolID
//   /rf/code/collectorID/protocolID/key
// ]
func (s *collectorServer) codeQueryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	// parse the URL for collector id, protocol id, key
	urlPath := strings.TrimPrefix(r.URL.Path, "/rf/code/")
	var collectorID, pid, key string
	stringPtr := []*string{&collectorID, &pid, &key}
	stringCount := 0
	for _, sp := range stringPtr {
		pos := strings.Index(urlPath, "/")
		if pos < 0 {
			if len(urlPath) > 0 {
				*sp = urlPath
				stringCount++
			}
			break
		}
		*sp = urlPath[:pos]
		stringCount++
		urlPath = urlPath[(pos + 1):]
	}
	if stringCount < 1 || collectorID == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	db := <-s.dbLock
	defer func() { s.dbLock <- db }()
	var (
		output interface{}
		err    error
	)
	switch {
	case stringCount == 1:
		output, err = db.getProtocolIDList(collectorID)
	case stringCount == 2 && pid != "":
		var p protocolID
		p.parse(pid)
		output, err = db.getKeys(collectorID, p)
	case stringCount == 3 && pid != "" && key != "":
		var p protocolID
		p.parse(pid)
		var entry *codeEntry
		entry, err = db.getEntry(collectorID, key)
		if err == nil && entry.Protocol != p {
			err = errNotFound
		}
		output = entry
	default:
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if err != nil {
		log.Print(err)
		w.WriteHeader(statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, output)
}

func (s *collectorServer) encodeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req encodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Println("Error unmarshaling.", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := req.validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	code, err := req.getCode()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	train, err := pulsecode.Encode(code, req.Repeats, s.config.Decoder)
	if err != nil {
		if s.config.Debug {
			log.Print(err)
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.metrics.encodes.Inc()
	writeJSON(w, http.StatusOK, encodeResponse{Durations: train.Durations(), Pairs: train.Pairs()})
}

// isDecodeError tells captures that were well formed but could not be
// decoded from malformed requests.
func isDecodeError(err error) bool {
	return errors.Is(err, pulsecode.ErrClassification) ||
		errors.Is(err, pulsecode.ErrInconsistentRepeat) ||
		errors.Is(err, pulsecode.ErrEmptyPattern)
}

func statusFor(err error) int {
	if errors.Is(err, errNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	responseBytes, err := json.Marshal(v)
	if err != nil {
		log.Print(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Add("Content-Type", "application/json")
	w.Header().Add("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	w.Write(responseBytes)
}

func getSubscriberID(data string) string {
	h := sha1.Sum([]byte(data))
	return hex.EncodeToString(h[:])
}

func writeCodeEvent(ctx context.Context, c *websocket.Conn, e newCodeEvent) error {
	ctx, cancelFunc := context.WithTimeout(ctx, 1*time.Second)
	defer cancelFunc()

	if err := wsjson.Write(ctx, c, e); err != nil {
		return err
	}
	return nil
}
