/*-
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package metrics

import (
	"sync"

	"github.com/mfreeman451/iotdash/pkg/models"
)

// RingBuffer keeps the most recent fetch points for one endpoint.
type RingBuffer struct {
	mu     sync.RWMutex
	points []models.FetchPoint
	pos    int
	count  int
}

// NewBuffer creates a FetchStore holding at most size points.
func NewBuffer(size int) FetchStore {
	if size <= 0 {
		size = 1
	}

	return &RingBuffer{
		points: make([]models.FetchPoint, size),
	}
}

// Add adds a new point, overwriting the oldest when full.
func (b *RingBuffer) Add(p models.FetchPoint) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.points[b.pos] = p
	b.pos = (b.pos + 1) % len(b.points)

	if b.count < len(b.points) {
		b.count++
	}
}

// GetPoints returns the stored points, newest first.
func (b *RingBuffer) GetPoints() []models.FetchPoint {
	b.mu.RLock()
	defer b.mu.RUnlock()

	size := len(b.points)
	points := make([]models.FetchPoint, 0, b.count)

	for i := 1; i <= b.count; i++ {
		idx := (b.pos - i + size) % size
		points = append(points, b.points[idx])
	}

	return points
}

// GetLastPoint returns the newest point or nil when empty.
func (b *RingBuffer) GetLastPoint() *models.FetchPoint {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.count == 0 {
		return nil
	}

	p := b.points[(b.pos-1+len(b.points))%len(b.points)]

	return &p
}
