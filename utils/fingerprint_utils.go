package utils

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// FileFingerprint derives a stable identity for one (local file, remote
// object) upload pair. Size and mtime participate so a rewritten source file
// never resumes a stale session.
func FileFingerprint(src string, bucket string, object string, size int64, mtimeMilli int64) string {
	sum := xxhash.Sum64String(fmt.Sprintf("%s|%s|%s|%d|%d", src, bucket, object, size, mtimeMilli))
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, sum)
	return hex.EncodeToString(buf)
}
