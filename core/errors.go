package core

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
//
// 使用场景：
//   - Store 错误：NOT_FOUND, NOT_SUPPORTED
//   - 请求参数错误：INVALID_INPUT
//   - 反馈操作错误：NOT_FOUND, PERMISSION_DENIED
//   - 配置错误：INVALID_CONFIG（加载期致命）
//   - 生成超时：TIMEOUT（可恢复，降级到兜底）
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "PERMISSION_DENIED"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "repo", "recommend"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// IsDomainError 检查错误是否为 DomainError 类型
func IsDomainError(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*DomainError)
	return ok
}

// GetDomainError 获取 DomainError，如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	// 通用错误代码
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 服务不可用
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误

	// 推荐域错误代码
	ErrorCodePermissionDenied = "PERMISSION_DENIED" // 越权操作他人的推荐记录
	ErrorCodeInvalidConfig    = "INVALID_CONFIG"    // 配置无效
	ErrorCodeTimeout          = "TIMEOUT"           // 生成超时（降级信号）
)

// 模块名称常量
const (
	ModuleStore     = "store"     // 存储模块
	ModuleRepo      = "repo"      // 仓储模块
	ModuleConfig    = "config"    // 配置模块
	ModuleRecommend = "recommend" // 推荐模块
)

// 通用错误检查函数

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotSupported
	}
	return false
}

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeInvalidInput
	}
	return false
}

// IsPermissionDenied 检查错误是否为 PERMISSION_DENIED
func IsPermissionDenied(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodePermissionDenied
	}
	return false
}

// IsTimeout 检查错误是否为 TIMEOUT
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeTimeout
	}
	return false
}
