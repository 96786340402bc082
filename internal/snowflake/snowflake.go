package snowflake

import (
	"fmt"
	"sync"
	"time"
)

type Snowflake struct {
	Timestamp int64
	WorkerID  int64
	Increment int64
}

const (
	timestampLength int64 = 42                                    // 42
	timestampPos          = 64 - timestampLength                  // 22
	workerLength    int64 = 10                                    // 10
	workerPos             = timestampPos - workerLength           // 12
	incrementLength       = 64 - (timestampLength + workerLength) // 12
)

const (
	maxWorkerValue    int64 = 1<<workerLength - 1
	maxIncrementValue int64 = 1<<incrementLength - 1
)

// Generator hands out ids that grow with time, so ordering by id
// matches creation order for a single worker.
type Generator struct {
	workerID int64

	mutex         sync.Mutex
	lastIncrement int64
	lastTimestamp int64
	now           func() time.Time
}

func NewGenerator(workerID int64) (*Generator, error) {
	if workerID < 0 || workerID > maxWorkerValue {
		return nil, fmt.Errorf("worker ID value must be between 0 and [%d]", maxWorkerValue)
	}
	return &Generator{workerID: workerID, now: time.Now}, nil
}

func (g *Generator) Generate() (int64, error) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	timestamp := g.now().UnixMilli()
	if timestamp < g.lastTimestamp {
		// clock went backwards, keep handing out ids from the last known millisecond
		timestamp = g.lastTimestamp
	}

	if timestamp == g.lastTimestamp {
		g.lastIncrement += 1
		if g.lastIncrement > maxIncrementValue {
			return 0, fmt.Errorf("increment overflow after increment reached %d", g.lastIncrement)
		}
	} else {
		g.lastIncrement = 0
		g.lastTimestamp = timestamp
	}

	return timestamp<<timestampPos | g.workerID<<workerPos | g.lastIncrement, nil
}

func Extract(snowflakeId int64) Snowflake {
	return Snowflake{
		Timestamp: snowflakeId >> timestampPos,
		WorkerID:  (snowflakeId >> workerPos) & maxWorkerValue,
		Increment: snowflakeId & maxIncrementValue,
	}
}

func ExtractTimestamp(snowflakeId int64) int64 {
	return snowflakeId >> timestampPos
}

func Time(snowflakeId int64) time.Time {
	return time.UnixMilli(ExtractTimestamp(snowflakeId)).UTC()
}
