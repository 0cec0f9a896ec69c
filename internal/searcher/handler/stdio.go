package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/google/uuid"

	apperrors "github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/logger"
)

const maxLineBytes = 1 << 20

type stdioError struct {
	Error stdioErrorBody `json:"error"`
}

type stdioErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ServeStdio reads one CallToolRequest JSON object per line from in and
// writes one line per request to out: a CallToolResult, or an error object
// carrying the HTTP-equivalent status code. It returns when in is
// exhausted or ctx is cancelled.
func (h *Handler) ServeStdio(ctx context.Context, in io.Reader, out io.Writer, timeout time.Duration) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	enc := json.NewEncoder(out)
	h.logger.Info("stdio transport ready")

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := enc.Encode(h.handleLine(ctx, line, timeout)); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (h *Handler) handleLine(ctx context.Context, line string, timeout time.Duration) any {
	var req protocol.CallToolRequest
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		return toStdioError(apperrors.Invalidf("invalid request: %v", err))
	}
	if req.Name == "" {
		return toStdioError(apperrors.Invalidf("tool name is required"))
	}

	ctx = logger.WithRequestID(ctx, uuid.NewString())
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	res, err := h.Call(ctx, req.Name, req.Arguments, "stdio")
	if err != nil {
		return toStdioError(err)
	}
	return res.ToolResult()
}

func toStdioError(err error) stdioError {
	return stdioError{Error: stdioErrorBody{Code: apperrors.HTTPStatusCode(err), Message: apperrors.PublicMessage(err)}}
}
