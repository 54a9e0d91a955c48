package storage

import (
	"errors"
	"strings"

	"github.com/minio/minio-go/v7"
)

// errorCode 提取 S3 错误码（小写），非 MinIO 错误返回空串。
func errorCode(err error) string {
	var minioErr minio.ErrorResponse
	if errors.As(err, &minioErr) {
		return strings.ToLower(strings.TrimSpace(minioErr.Code))
	}
	return ""
}

// IsNoSuchKey 判断错误是否表示导出对象已不存在。
func IsNoSuchKey(err error) bool {
	if err == nil {
		return false
	}
	switch errorCode(err) {
	case "nosuchkey", "notfound":
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "specified key does not exist")
}

// isBucketOwned 判断 MakeBucket 失败是否因为 Bucket 已被本账号创建。
// api 与 worker 同时启动时双方都会尝试建桶。
func isBucketOwned(err error) bool {
	switch errorCode(err) {
	case "bucketalreadyownedbyyou", "bucketalreadyexists":
		return true
	}
	return false
}
