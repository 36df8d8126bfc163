// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// =============================================================================
// STREAMING SEND
// =============================================================================

// Send performs one request/stream cycle: it opens exactly one request and
// returns the lazy event stream bound to the connection. There is no retry
// and no buffering beyond the decoder's line residual.
//
// A non-success initial response is surfaced as a transport error carrying
// the server's detail message when present. The caller owns the returned
// stream: consume it to completion, or cancel ctx (which closes the
// connection) to abandon it.
func (c *Client) Send(ctx context.Context, req SendRequest) (*Stream, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/chat/send", bytes.NewReader(body))
	if err != nil {
		return nil, &ClientError{Type: ErrTypeTransport, Message: "failed to create request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.streamClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, ErrTimeout
		}
		c.logger.Debug("send failed to connect", zap.String("conversation", req.ConversationID), zap.Error(err))
		return nil, &ClientError{Type: ErrTypeTransport, Message: ErrBackendDown.Message, Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, &ClientError{
			Type:    ErrTypeTransport,
			Message: decodeDetail(resp.Body, "send failed: "+resp.Status),
		}
	}

	c.logger.Debug("stream opened", zap.String("conversation", req.ConversationID), zap.String("mode", string(req.Mode)))
	return newStream(resp.Body), nil
}
