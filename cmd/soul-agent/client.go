// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/AustinWp/soul-agent/internal/errors"
)

// client talks to the daemon's loopback HTTP surface.
type client struct {
	base string
	http *http.Client
}

func newClient(port int) *client {
	return &client{
		base: fmt.Sprintf("http://127.0.0.1:%d", port),
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// get issues a GET and decodes the JSON response into out.
func (c *client) get(path string, out any) error {
	resp, err := c.http.Get(c.base + path)
	if err != nil {
		return c.unreachable(err)
	}
	defer resp.Body.Close()
	return c.decode(resp, out)
}

// post issues a JSON POST and decodes the response into out.
func (c *client) post(path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := c.http.Post(c.base+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return c.unreachable(err)
	}
	defer resp.Body.Close()
	return c.decode(resp, out)
}

func (c *client) decode(resp *http.Response, out any) error {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("daemon: %s", apiErr.Error)
		}
		return fmt.Errorf("daemon: HTTP %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func (c *client) unreachable(err error) error {
	return errors.NewNetworkError(
		"Cannot reach the soul-agent daemon",
		fmt.Sprintf("No response from %s", c.base),
		"Start the daemon with 'soul-agent start'",
		err,
	)
}
