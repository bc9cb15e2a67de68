package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/JonMunkholm/secops/internal/core"
)

// readRequest loads the rows of an import from path ("-" reads in).
// The file holds either a bare array of rows or a full request object; kind,
// when set, overrides the object's recordKind, and mode always comes from the
// command.
func readRequest(in io.Reader, path, kind string, mode core.Mode) (core.Request, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(in)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return core.Request{}, fmt.Errorf("read %s: %w", path, err)
	}

	req, err := parseRequest(data)
	if err != nil {
		return core.Request{}, fmt.Errorf("invalid request in %s: %w", path, err)
	}

	if kind != "" {
		req.RecordKind = kind
	}
	if req.RecordKind == "" {
		return core.Request{}, fmt.Errorf("%w: set --kind or recordKind in the file", core.ErrUnknownKind)
	}
	req.Mode = string(mode)
	return req, nil
}

func parseRequest(data []byte) (core.Request, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return core.Request{}, fmt.Errorf("empty input")
	}

	var req core.Request
	if data[0] == '[' {
		if err := json.Unmarshal(data, &req.Rows); err != nil {
			return core.Request{}, err
		}
		return req, nil
	}

	if err := json.Unmarshal(data, &req); err != nil {
		return core.Request{}, err
	}
	return req, nil
}
