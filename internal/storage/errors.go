package storage

import (
	"errors"
	"strings"

	"github.com/minio/minio-go/v7"
)

// IsNoSuchKey 判断错误是否表示对象不存在（S3/MinIO: NoSuchKey/NotFound）。
// 删除导出产物或缩略图时，对象缺失视为删除成功。
func IsNoSuchKey(err error) bool {
	if err == nil {
		return false
	}
	if responseCodeIs(err, "nosuchkey", "notfound") {
		return true
	}

	// 部分网关会丢掉结构化错误，只留下字符串。
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "nosuchkey") ||
		strings.Contains(lower, "specified key does not exist") ||
		strings.Contains(lower, "not found")
}

func responseCodeIs(err error, codes ...string) bool {
	var minioErr minio.ErrorResponse
	if !errors.As(err, &minioErr) {
		return false
	}
	got := strings.ToLower(strings.TrimSpace(minioErr.Code))
	for _, code := range codes {
		if got == code {
			return true
		}
	}
	return false
}
