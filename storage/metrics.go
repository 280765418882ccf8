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

package storage

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/cayleygraph/sparqlstorage/errs"
)

var (
	mOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sparqlstorage_operations_total",
		Help: "Number of storage operations.",
	}, []string{"op"})
	mOpErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sparqlstorage_operation_errors_total",
		Help: "Number of failed storage operations by error kind.",
	}, []string{"op", "kind"})
	mOpSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "sparqlstorage_operation_seconds",
		Help: "Time to run a storage operation, including all store requests.",
	}, []string{"op"})
	mSkippedFields = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sparqlstorage_skipped_fields_total",
		Help: "Number of fields skipped because of mapping or encoding errors.",
	}, []string{"op"})
	mEntityTriples = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sparqlstorage_entity_triples",
		Help:    "Number of triples written per entity.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})
)

func kindOf(err error) string {
	for _, k := range []errs.Kind{
		errs.DuplicatedID, errs.NotFound, errs.Query, errs.Config,
		errs.UnmappedField, errs.NonExistingProperty, errs.Encoding,
	} {
		if errs.Is(err, k) {
			return k.String()
		}
	}
	return errs.Unknown.String()
}

// observe records an operation. Partial errors count as skipped fields.
func observe(op string, start time.Time, err error) {
	mOps.WithLabelValues(op).Inc()
	mOpSeconds.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err == nil {
		return
	}
	if fe, ok := err.(*errs.FieldErrors); ok {
		mSkippedFields.WithLabelValues(op).Add(float64(len(fe.Errs)))
		return
	}
	mOpErrors.WithLabelValues(op, kindOf(err)).Inc()
}
