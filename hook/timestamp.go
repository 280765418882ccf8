// Copyright 2026 The Cayley Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package hook

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/cayleygraph/sparqlstorage/mapping"
)

// Names and priorities of the timestamp hooks. Outbound conversion runs last
// and inbound conversion runs first, so other hooks always see unix seconds.
const (
	TimestampHook = "timestamp"

	timestampOutboundPriority = -1 << 20
	timestampInboundPriority  = 1 << 20
)

// RegisterTimestamps adds hooks that store unix timestamps of timestamp,
// created and changed fields as xsd:dateTime literals, and read them back.
func RegisterTimestamps(d *Dispatcher) {
	d.OnOutbound(timestampOutboundPriority, TimestampHook, timestampsOut)
	d.OnInbound(timestampInboundPriority, TimestampHook, timestampsIn)
}

func isTimestamp(m mapping.Mapping) bool {
	return mapping.IsTimestamp(m.FieldType) &&
		(m.Format == mapping.XSDDateTime || m.Format == mapping.XSDDate)
}

func timestampsOut(_ context.Context, ev *ValueEvent) {
	if !isTimestamp(ev.Mapping) {
		return
	}
	for i, v := range ev.Values {
		if sec, ok := unixSeconds(v); ok {
			ev.Values[i] = time.Unix(sec, 0).UTC()
		}
	}
}

func timestampsIn(_ context.Context, ev *ValueEvent) {
	if !isTimestamp(ev.Mapping) {
		return
	}
	for i, v := range ev.Values {
		if t, ok := v.(time.Time); ok {
			ev.Values[i] = t.Unix()
		}
	}
}

func unixSeconds(v interface{}) (int64, bool) {
	switch v := v.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	}
	return 0, false
}
