package redis

import "fmt"

// Key prefix for all tracker data
const keyPrefix = "qrun"

// sessionKey returns the Redis key for the backend session of a browser session
func sessionKey(key string) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, key)
}
