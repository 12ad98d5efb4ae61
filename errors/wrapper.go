package errors

import (
	"context"
	stdErrors "errors"
	"fmt"
)

// WrapDbError 包装数据库层错误。
//
// 约定：
//   - err 为 nil 时返回 nil；
//   - 已是本包错误时保留原错误码，仅追加操作描述；
//   - context 取消/超时转换为 ErrCodeCanceled，保持取消语义而非笼统的数据库错误。
func WrapDbError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}
	if stdErrors.Is(err, context.Canceled) || stdErrors.Is(err, context.DeadlineExceeded) {
		return WrapError(err, ErrCodeCanceled, operation+" canceled")
	}
	var appErr *AppError
	if stdErrors.As(err, &appErr) {
		return WrapError(err, appErr.code, operation+" failed")
	}
	return WrapError(err, ErrCodeDatabase, fmt.Sprintf("%s failed", operation))
}
