// Package astratest emulates the Astra DB Data API in memory so that
// integration packages can be tested without a live database. It covers
// the document commands the astra client issues, including vector sort
// with cosine similarity.
package astratest

import (
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/goccy/go-json"
)

const defaultPageSize = 20

// Server is an in-memory Data API server.
type Server struct {
	server *httptest.Server

	mu          sync.Mutex
	collections map[string][]map[string]any
	requests    int
}

// NewServer creates and starts the emulator.
func NewServer() *Server {
	s := &Server{
		collections: make(map[string][]map[string]any),
	}
	s.server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// URL returns the emulator's base URL.
func (s *Server) URL() string {
	return s.server.URL
}

// Close shuts the emulator down.
func (s *Server) Close() {
	s.server.Close()
}

// Requests returns how many commands the emulator has served.
func (s *Server) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

// Seed inserts documents directly, bypassing the API.
func (s *Server) Seed(collection string, docs ...map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[collection] = append(s.collections[collection], docs...)
}

// Documents returns a snapshot of a collection's documents in insertion
// order.
func (s *Server) Documents(collection string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := s.collections[collection]
	result := make([]map[string]any, len(docs))
	copy(result, docs)
	return result
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Token") == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"errors": []map[string]any{{"message": "missing token", "errorCode": "UNAUTHENTICATED"}},
		})
		return
	}

	// Path is /api/json/v1/{keyspace}[/{collection}].
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/json/v1/"), "/")
	var collection string
	if len(parts) == 2 {
		collection = parts[1]
	}

	var command map[string]any
	if err := json.NewDecoder(r.Body).Decode(&command); err != nil {
		writeAPIError(w, "unable to parse command: "+err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests++

	for name, raw := range command {
		args, _ := raw.(map[string]any)
		switch name {
		case "createCollection":
			s.createCollection(w, args)
		case "deleteCollection":
			name, _ := args["name"].(string)
			delete(s.collections, name)
			writeJSON(w, http.StatusOK, map[string]any{"status": map[string]any{"ok": 1}})
		case "insertOne":
			s.insertOne(w, collection, args)
		case "insertMany":
			s.insertMany(w, collection, args)
		case "findOne":
			s.findOne(w, collection, args)
		case "find":
			s.find(w, collection, args)
		case "findOneAndReplace":
			s.findOneAndReplace(w, collection, args)
		case "deleteOne":
			s.deleteOne(w, collection, args)
		case "deleteMany":
			s.deleteMany(w, collection, args)
		default:
			writeAPIError(w, "unknown command: "+name)
		}
		return
	}
	writeAPIError(w, "empty command")
}

func (s *Server) createCollection(w http.ResponseWriter, args map[string]any) {
	name, _ := args["name"].(string)
	if name == "" {
		writeAPIError(w, "createCollection requires a name")
		return
	}
	if _, ok := s.collections[name]; !ok {
		s.collections[name] = nil
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": map[string]any{"ok": 1}})
}

func (s *Server) insertOne(w http.ResponseWriter, collection string, args map[string]any) {
	doc, _ := args["document"].(map[string]any)
	if doc == nil {
		writeAPIError(w, "insertOne requires a document")
		return
	}
	s.collections[collection] = append(s.collections[collection], doc)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": map[string]any{"insertedIds": []any{doc["_id"]}},
	})
}

func (s *Server) insertMany(w http.ResponseWriter, collection string, args map[string]any) {
	rawDocs, _ := args["documents"].([]any)
	ids := make([]any, 0, len(rawDocs))
	for _, raw := range rawDocs {
		doc, _ := raw.(map[string]any)
		if doc == nil {
			continue
		}
		s.collections[collection] = append(s.collections[collection], doc)
		ids = append(ids, doc["_id"])
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": map[string]any{"insertedIds": ids},
	})
}

func (s *Server) findOne(w http.ResponseWriter, collection string, args map[string]any) {
	filter, _ := args["filter"].(map[string]any)
	matches := matchAll(s.collections[collection], filter)
	var doc any
	if len(matches) > 0 {
		doc = matches[0]
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"document": doc}})
}

func (s *Server) find(w http.ResponseWriter, collection string, args map[string]any) {
	filter, _ := args["filter"].(map[string]any)
	matches := matchAll(s.collections[collection], filter)

	options, _ := args["options"].(map[string]any)
	includeSimilarity := false
	if options != nil {
		includeSimilarity, _ = options["includeSimilarity"].(bool)
	}

	if sortSpec, ok := args["sort"].(map[string]any); ok {
		matches = applySort(matches, sortSpec, includeSimilarity)
	}

	limit := 0
	offset := 0
	if options != nil {
		if l, ok := options["limit"].(float64); ok {
			limit = int(l)
		}
		if ps, ok := options["pageState"].(string); ok && ps != "" {
			offset, _ = strconv.Atoi(ps)
		}
	}

	pageSize := defaultPageSize
	if limit > 0 && limit < pageSize {
		pageSize = limit
	}
	if offset > len(matches) {
		offset = len(matches)
	}

	end := offset + pageSize
	if limit > 0 && end > limit {
		end = limit
	}
	if end > len(matches) {
		end = len(matches)
	}

	page := matches[offset:end]
	data := map[string]any{"documents": page}
	if end < len(matches) && (limit == 0 || end < limit) {
		data["nextPageState"] = strconv.Itoa(end)
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": data})
}

func (s *Server) findOneAndReplace(w http.ResponseWriter, collection string, args map[string]any) {
	filter, _ := args["filter"].(map[string]any)
	replacement, _ := args["replacement"].(map[string]any)
	options, _ := args["options"].(map[string]any)
	upsert := false
	if options != nil {
		upsert, _ = options["upsert"].(bool)
	}

	docs := s.collections[collection]
	for i, doc := range docs {
		if matches(doc, filter) {
			docs[i] = replacement
			writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"document": replacement}})
			return
		}
	}
	if upsert {
		s.collections[collection] = append(docs, replacement)
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"document": nil}})
}

func (s *Server) deleteOne(w http.ResponseWriter, collection string, args map[string]any) {
	filter, _ := args["filter"].(map[string]any)
	docs := s.collections[collection]
	for i, doc := range docs {
		if matches(doc, filter) {
			s.collections[collection] = append(docs[:i:i], docs[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]any{"status": map[string]any{"deletedCount": 1}})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": map[string]any{"deletedCount": 0}})
}

func (s *Server) deleteMany(w http.ResponseWriter, collection string, args map[string]any) {
	filter, _ := args["filter"].(map[string]any)
	docs := s.collections[collection]

	var kept []map[string]any
	deleted := 0
	for _, doc := range docs {
		if matches(doc, filter) {
			deleted++
			continue
		}
		kept = append(kept, doc)
	}
	s.collections[collection] = kept
	writeJSON(w, http.StatusOK, map[string]any{"status": map[string]any{"deletedCount": deleted}})
}

func matchAll(docs []map[string]any, filter map[string]any) []map[string]any {
	var result []map[string]any
	for _, doc := range docs {
		if matches(doc, filter) {
			result = append(result, doc)
		}
	}
	return result
}

func matches(doc, filter map[string]any) bool {
	for key, want := range filter {
		if !valueEqual(doc[key], want) {
			return false
		}
	}
	return true
}

// valueEqual compares JSON-decoded values. Both sides have passed
// through JSON so scalars are string, float64, or bool.
func valueEqual(got, want any) bool {
	return fmt.Sprintf("%v", got) == fmt.Sprintf("%v", want)
}

// applySort orders matches by a single sort key. A $vector key sorts by
// descending cosine similarity against the query vector and annotates
// documents with $similarity when requested.
func applySort(docs []map[string]any, sortSpec map[string]any, includeSimilarity bool) []map[string]any {
	for key, direction := range sortSpec {
		if key == "$vector" {
			return sortByVector(docs, toFloats(direction), includeSimilarity)
		}

		asc := true
		if d, ok := direction.(float64); ok && d < 0 {
			asc = false
		}
		sorted := make([]map[string]any, len(docs))
		copy(sorted, docs)
		sort.SliceStable(sorted, func(i, j int) bool {
			less := compareValues(sorted[i][key], sorted[j][key])
			if asc {
				return less
			}
			return !less
		})
		return sorted
	}
	return docs
}

func compareValues(a, b any) bool {
	af, aok := a.(float64)
	bf, bok := b.(float64)
	if aok && bok {
		return af < bf
	}
	return fmt.Sprintf("%v", a) < fmt.Sprintf("%v", b)
}

func sortByVector(docs []map[string]any, query []float64, includeSimilarity bool) []map[string]any {
	type scored struct {
		doc        map[string]any
		similarity float64
	}

	items := make([]scored, 0, len(docs))
	for _, doc := range docs {
		vec := toFloats(doc["$vector"])
		items = append(items, scored{doc: doc, similarity: cosineSimilarity(query, vec)})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].similarity > items[j].similarity
	})

	result := make([]map[string]any, 0, len(items))
	for _, item := range items {
		doc := item.doc
		if includeSimilarity {
			annotated := make(map[string]any, len(doc)+1)
			for k, v := range doc {
				annotated[k] = v
			}
			annotated["$similarity"] = item.similarity
			doc = annotated
		}
		result = append(result, doc)
	}
	return result
}

func toFloats(v any) []float64 {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	result := make([]float64, 0, len(raw))
	for _, item := range raw {
		f, _ := item.(float64)
		result = append(result, f)
	}
	return result
}

// cosineSimilarity follows the Data API convention of reporting scores
// in [0, 1], where 1 means identical direction.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	cosine := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return (1 + cosine) / 2
}

func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeAPIError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, map[string]any{
		"errors": []map[string]any{{"message": message, "errorCode": "INVALID_COMMAND"}},
	})
}
