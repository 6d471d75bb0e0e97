package utilities

import (
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

// NewKSUID generates a new globally unique KSUID string.
func NewKSUID() string {
	return ksuid.New().String()
}

var (
	nodeMu sync.Mutex
	node   *snowflake.Node
)

// InitSnowflake sets the node used by NewSnowflakeID. Invalid node IDs fall
// back to node 1.
func InitSnowflake(nodeID int64) error {
	n, err := snowflake.NewNode(nodeID)
	if err != nil {
		n, _ = snowflake.NewNode(1)
	}
	nodeMu.Lock()
	node = n
	nodeMu.Unlock()
	return err
}

// NewSnowflakeID generates a time-ordered snowflake ID string. If no node has
// been initialised, node 1 is used.
func NewSnowflakeID() string {
	nodeMu.Lock()
	if node == nil {
		node, _ = snowflake.NewNode(1)
	}
	n := node
	nodeMu.Unlock()
	return n.Generate().String()
}
