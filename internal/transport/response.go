// CrewGrid - Workforce Management Client Core
// Copyright 2026 CrewGrid Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crewgrid/crewgrid

package transport

import (
	"net/http"

	"github.com/goccy/go-json"
)

// Response is a normalized success response. The body has already had a
// header-issued credential injected under the "token" key when the
// server sent one and the payload lacked it.
type Response struct {
	Status int
	Header http.Header

	body        []byte
	headerToken string
}

// NewResponse builds a Response from raw parts. Consumers substituting
// a fake API use it; the client builds its responses internally.
func NewResponse(status int, header http.Header, body []byte) *Response {
	if header == nil {
		header = http.Header{}
	}
	return &Response{Status: status, Header: header, body: body}
}

// Decode unmarshals the payload into v. A malformed body on a success
// response is a ServerError: the transport never returns partial data.
func (r *Response) Decode(v any) error {
	if len(r.body) == 0 {
		return &ServerError{Status: r.Status, Message: "empty response body"}
	}
	if err := json.Unmarshal(r.body, v); err != nil {
		return &ServerError{Status: r.Status, Message: "malformed response body: " + err.Error()}
	}
	return nil
}

// Bytes returns the raw (post-injection) payload.
func (r *Response) Bytes() []byte {
	return r.body
}

// Token returns the credential carried by this response: the body's
// "token" or "access_token" field, or a header-issued credential when
// the body was not a JSON object. Empty when the response carried none.
func (r *Response) Token() string {
	var payload struct {
		Token       string `json:"token"`
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(r.body, &payload); err == nil {
		if payload.Token != "" {
			return payload.Token
		}
		if payload.AccessToken != "" {
			return payload.AccessToken
		}
	}
	return r.headerToken
}
