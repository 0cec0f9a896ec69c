package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/vmihailenco/msgpack/v5"

	apperrors "github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/logger"
)

const (
	contentTypeJSON    = "application/json"
	contentTypeMsgpack = "application/msgpack"
	maxBodyBytes       = 1 << 20
)

// Register mounts the tool and service routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /mcp", h.ServerInfo)
	mux.HandleFunc("GET /mcp/tools", h.ListTools)
	mux.HandleFunc("POST /mcp/tools/call", h.CallTool)
	mux.HandleFunc("POST /api/v1/tools/{name}", h.InvokeTool)
	mux.HandleFunc("GET /api/v1/analytics", h.AnalyticsStats)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

func (h *Handler) ServerInfo(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, 7)
	for _, t := range Catalogue() {
		names = append(names, t.Name)
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"serverInfo": h.info,
		"tools":      names,
	})
}

func (h *Handler) ListTools(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"tools": Catalogue()})
}

// CallTool serves POST /mcp/tools/call: a CallToolRequest in, a
// CallToolResult out.
func (h *Handler) CallTool(w http.ResponseWriter, r *http.Request) {
	var req protocol.CallToolRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.writeError(w, apperrors.Invalidf("invalid request body: %v", err))
		return
	}
	if req.Name == "" {
		h.writeError(w, apperrors.Invalidf("tool name is required"))
		return
	}
	res, err := h.Call(r.Context(), req.Name, req.Arguments, "http")
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("X-Cache", cacheHeader(res.CacheHit))
	h.writeJSON(w, http.StatusOK, res.ToolResult())
}

// InvokeTool serves POST /api/v1/tools/{name}. The body is the argument
// object as JSON or, with Content-Type application/msgpack, msgpack. The
// response is the bare result payload, msgpack-encoded when the Accept
// header asks for it.
func (h *Handler) InvokeTool(w http.ResponseWriter, r *http.Request) {
	args, err := decodeArgs(r, http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.writeError(w, err)
		return
	}
	res, err := h.Call(r.Context(), r.PathValue("name"), args, "http")
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("X-Cache", cacheHeader(res.CacheHit))
	if wantsMsgpack(r) {
		value := res.Value
		if value == nil {
			var generic any
			if err := json.Unmarshal(res.Body, &generic); err != nil {
				h.writeError(w, apperrors.Newf(apperrors.ErrInternal, "decoding cached result: %v", err))
				return
			}
			value = generic
		}
		h.writeMsgpack(w, http.StatusOK, value)
		return
	}
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Body); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) AnalyticsStats(w http.ResponseWriter, r *http.Request) {
	if h.analytics == nil {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "analytics disabled"})
		return
	}
	h.writeValue(w, r, h.analytics.Stats())
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	h.writeValue(w, r, h.cache.Stats())
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	deleted, err := h.cache.Invalidate(r.Context())
	if err != nil {
		log.Error("cache invalidation failed", "error", err)
		h.writeError(w, apperrors.Newf(apperrors.ErrCacheUnavailable, "%v", err))
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":       "invalidated",
		"keys_deleted": deleted,
	})
}

func decodeArgs(r *http.Request, body io.Reader) (map[string]any, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, apperrors.Invalidf("reading request body: %v", err)
	}
	args := map[string]any{}
	if len(bytes.TrimSpace(data)) == 0 {
		return args, nil
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), contentTypeMsgpack) {
		dec := msgpack.NewDecoder(bytes.NewReader(data))
		dec.UseLooseInterfaceDecoding(true)
		if err := dec.Decode(&args); err != nil {
			return nil, apperrors.Invalidf("invalid msgpack arguments: %v", err)
		}
		return args, nil
	}
	if err := json.Unmarshal(data, &args); err != nil {
		return nil, apperrors.Invalidf("arguments must be a JSON object: %v", err)
	}
	return args, nil
}

func wantsMsgpack(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), contentTypeMsgpack)
}

func cacheHeader(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}

func (h *Handler) writeValue(w http.ResponseWriter, r *http.Request, v any) {
	if wantsMsgpack(r) {
		h.writeMsgpack(w, http.StatusOK, v)
		return
	}
	h.writeJSON(w, http.StatusOK, v)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write json response", "error", err)
	}
}

func (h *Handler) writeMsgpack(w http.ResponseWriter, status int, data any) {
	body, err := marshalMsgpack(data)
	if err != nil {
		h.writeError(w, apperrors.Newf(apperrors.ErrInternal, "encoding msgpack: %v", err))
		return
	}
	w.Header().Set("Content-Type", contentTypeMsgpack)
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		h.logger.Error("failed to write msgpack response", "error", err)
	}
}

// marshalMsgpack encodes with the json struct tags so both encodings share
// field names.
func marshalMsgpack(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatusCode(err)
	h.writeJSON(w, status, map[string]string{"error": apperrors.PublicMessage(err)})
}
