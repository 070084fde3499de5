package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/corraldb/corral/api"
)

// recordID reassembles the wildcard path segments into the storage id.
// Composite keys arrive as one segment per component; the server keys
// storage on the joined form.
func (s *server) recordID(c echo.Context) (string, error) {
	raw := c.Param("*")
	if raw == "" {
		return "", api.Errorf(api.Validation, "missing record id")
	}
	var parts []string
	for _, seg := range strings.Split(raw, "/") {
		dec, err := url.PathUnescape(seg)
		if err != nil {
			return "", api.Errorf(api.Validation, "bad id segment %q", seg)
		}
		parts = append(parts, dec)
	}
	return strings.Join(parts, s.cfg.KeySeparator), nil
}

func (s *server) handleCreate(c echo.Context) error {
	id, err := s.recordID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	var rec api.Record
	if err := c.Bind(&rec); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	resource := c.Param("resource")
	if _, exists := s.store.get(resource, id); exists {
		return fail(c, http.StatusConflict, "record already exists")
	}

	s.store.put(resource, id, rec)
	log.Debug("created", "resource", resource, "id", id)
	return c.JSON(http.StatusOK, rec)
}

func (s *server) handleRead(c echo.Context) error {
	id, err := s.recordID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	rec, ok := s.store.get(c.Param("resource"), id)
	if !ok {
		return fail(c, http.StatusNotFound, "record not found")
	}
	return c.JSON(http.StatusOK, rec)
}

func (s *server) handleUpdate(c echo.Context) error {
	id, err := s.recordID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	var rec api.Record
	if err := c.Bind(&rec); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	resource := c.Param("resource")
	if _, ok := s.store.get(resource, id); !ok {
		return fail(c, http.StatusNotFound, "record not found")
	}

	s.store.put(resource, id, rec)
	return c.JSON(http.StatusOK, rec)
}

func (s *server) handleDelete(c echo.Context) error {
	id, err := s.recordID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	rec, ok := s.store.delete(c.Param("resource"), id)
	if !ok {
		return fail(c, http.StatusNotFound, "record not found")
	}
	return c.JSON(http.StatusOK, rec)
}

// bulkID picks the storage id for a bulk record: the id field when
// present, a generated one otherwise.
func bulkID(rec api.Record) string {
	if id, ok := rec["id"].(string); ok && id != "" {
		return id
	}
	return gonanoid.Must()
}

func (s *server) handleBulkCreate(c echo.Context) error {
	var recs []api.Record
	if err := c.Bind(&recs); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	resource := c.Param("resource")
	ids := make([]string, len(recs))
	for i, rec := range recs {
		ids[i] = bulkID(rec)
		if _, exists := s.store.get(resource, ids[i]); exists {
			return fail(c, http.StatusConflict, "record "+ids[i]+" already exists")
		}
	}
	for i, rec := range recs {
		s.store.put(resource, ids[i], rec)
	}
	return c.JSON(http.StatusOK, recs)
}

func (s *server) queryIDs(c echo.Context) []string {
	raw := c.QueryParam("ids")
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

func (s *server) handleBulkRead(c echo.Context) error {
	resource := c.Param("resource")
	recs := []api.Record{}
	for _, id := range s.queryIDs(c) {
		rec, ok := s.store.get(resource, id)
		if !ok {
			return fail(c, http.StatusNotFound, "record "+id+" not found")
		}
		recs = append(recs, rec)
	}
	return c.JSON(http.StatusOK, recs)
}

func (s *server) handleBulkUpdate(c echo.Context) error {
	var recs []api.Record
	if err := c.Bind(&recs); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	resource := c.Param("resource")
	for _, rec := range recs {
		id, _ := rec["id"].(string)
		if id == "" {
			return fail(c, http.StatusBadRequest, "bulk update requires an id field")
		}
		if _, ok := s.store.get(resource, id); !ok {
			return fail(c, http.StatusNotFound, "record "+id+" not found")
		}
	}
	for _, rec := range recs {
		id, _ := rec["id"].(string)
		s.store.put(resource, id, rec)
	}
	return c.JSON(http.StatusOK, recs)
}

func (s *server) handleBulkDelete(c echo.Context) error {
	resource := c.Param("resource")
	ids := s.queryIDs(c)
	for _, id := range ids {
		if _, ok := s.store.get(resource, id); !ok {
			return fail(c, http.StatusNotFound, "record "+id+" not found")
		}
	}
	recs := []api.Record{}
	for _, id := range ids {
		rec, _ := s.store.delete(resource, id)
		recs = append(recs, rec)
	}
	return c.JSON(http.StatusOK, recs)
}
