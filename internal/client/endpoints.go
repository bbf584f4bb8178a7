package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/dm/etcd-dash/internal/model"
)

const (
	endpointStatus  = "/api/status"
	endpointCompact = "/api/compact"
	endpointDefrag  = "/api/defrag"
)

const (
	opStatus  = "status"
	opCompact = "compact"
	opDefrag  = "defrag"
)

// FetchStatus fetches per-member status from /api/status.
func (c *DefaultClient) FetchStatus(ctx context.Context) (model.ClusterSnapshotSet, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	status, body, err := c.do(ctx, opStatus, http.MethodGet, endpointStatus)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, &APIError{
			Kind:       KindNonSuccessStatus,
			Op:         opStatus,
			StatusCode: status,
			Message:    failureMessage(body),
		}
	}
	return parseStatus(body)
}

// Compact requests compaction up to the current revision via /api/compact.
func (c *DefaultClient) Compact(ctx context.Context) error {
	return c.runAction(ctx, opCompact, endpointCompact)
}

// Defrag requests defragmentation of every member via /api/defrag.
func (c *DefaultClient) Defrag(ctx context.Context) error {
	return c.runAction(ctx, opDefrag, endpointDefrag)
}

// runAction issues a maintenance POST. Success is decided by status code
// alone; the success body is ignored.
func (c *DefaultClient) runAction(ctx context.Context, op, path string) error {
	status, body, err := c.do(ctx, op, http.MethodPost, path)
	if err != nil {
		return err
	}
	if isSuccess(status) {
		return nil
	}

	var eb errorBody
	if json.Unmarshal(body, &eb) == nil && strings.TrimSpace(eb.Error) != "" {
		return &APIError{
			Kind:       KindServerReported,
			Op:         op,
			StatusCode: status,
			Message:    eb.Error,
			Endpoint:   eb.Endpoint,
		}
	}
	return &APIError{
		Kind:       KindNonSuccessStatus,
		Op:         op,
		StatusCode: status,
		Message:    failureMessage(body),
	}
}

// parseStatus decodes and validates a /api/status body. A JSON null is an
// empty set.
func parseStatus(body []byte) (model.ClusterSnapshotSet, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, &APIError{Kind: KindMalformed, Op: opStatus, Message: "empty body"}
	}
	if bytes.Equal(trimmed, []byte("null")) {
		return model.ClusterSnapshotSet{}, nil
	}

	var raw []statusEntry
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, &APIError{Kind: KindMalformed, Op: opStatus, Message: "decode", Err: err}
	}

	set := make(model.ClusterSnapshotSet, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for i, r := range raw {
		snap, err := r.toSnapshot()
		if err != nil {
			return nil, &APIError{Kind: KindMalformed, Op: opStatus, Message: fmt.Sprintf("entry %d: %s", i, err)}
		}
		if _, dup := seen[snap.EndpointAddress]; dup {
			return nil, &APIError{Kind: KindMalformed, Op: opStatus, Message: fmt.Sprintf("entry %d: duplicate endpoint %q", i, snap.EndpointAddress)}
		}
		seen[snap.EndpointAddress] = struct{}{}
		set = append(set, snap)
	}
	return set, nil
}

func (r statusEntry) toSnapshot() (model.EndpointSnapshot, error) {
	var missing []string
	if r.Endpoint == nil {
		missing = append(missing, "endpoint")
	}
	if r.Version == nil {
		missing = append(missing, "version")
	}
	if r.DBSize == nil {
		missing = append(missing, "dbSize")
	}
	if r.DBSizeInUse == nil {
		missing = append(missing, "dbSizeInUse")
	}
	if r.Leader == nil {
		missing = append(missing, "leader")
	}
	if len(missing) > 0 {
		return model.EndpointSnapshot{}, fmt.Errorf("missing field(s) %s", strings.Join(missing, ", "))
	}
	if *r.Endpoint == "" {
		return model.EndpointSnapshot{}, fmt.Errorf("empty endpoint")
	}
	if *r.DBSizeInUse > *r.DBSize {
		return model.EndpointSnapshot{}, fmt.Errorf("dbSizeInUse %d exceeds dbSize %d", *r.DBSizeInUse, *r.DBSize)
	}
	return model.EndpointSnapshot{
		EndpointAddress:  *r.Endpoint,
		Version:          *r.Version,
		DBSizeBytes:      *r.DBSize,
		DBSizeInUseBytes: *r.DBSizeInUse,
		IsLeader:         *r.Leader,
	}, nil
}

// failureMessage returns the server's {"error": ...} text when present,
// otherwise a truncated copy of the raw body.
func failureMessage(body []byte) string {
	var eb errorBody
	if json.Unmarshal(body, &eb) == nil && eb.Error != "" {
		return eb.Error
	}
	return strings.TrimSpace(truncate(body, 200))
}
