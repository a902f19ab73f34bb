package core

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有子组件的可恢复失败都使用此类型表达，而不是裸 error
//   - 提供错误代码（Code）和消息（Message），支持 IsXXX 检查函数
//   - 引擎在组件边界捕获 DomainError，转换为“空候选池”而非向上抛出
//
// 错误分类（对应降级策略）：
//   - DATA_UNAVAILABLE：交互不足 / 矩阵过小 / SVD 不收敛，回退到其他召回源
//   - DEPENDENCY_TIMEOUT：外部存储或向量服务超时，该候选池按空处理
//   - NOT_FOUND：未知用户或文章，未知用户触发冷启动路径
type DomainError struct {
	Code    string // 错误代码（如 "DATA_UNAVAILABLE"）
	Message string // 错误消息
	Module  string // 模块名称（如 "matrix", "model", "store"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError 创建新的领域错误。
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// GetDomainError 获取 DomainError，如果不是则返回 nil。
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
		return domainErr
	}
	return nil
}

// 错误代码常量
const (
	ErrorCodeNotFound          = "NOT_FOUND"          // 资源不存在
	ErrorCodeDataUnavailable   = "DATA_UNAVAILABLE"   // 数据不足以支撑该算法
	ErrorCodeDependencyTimeout = "DEPENDENCY_TIMEOUT" // 外部依赖超时
	ErrorCodeNotSupported      = "NOT_SUPPORTED"      // 操作不支持
	ErrorCodeInvalidInput      = "INVALID_INPUT"      // 输入无效
)

// 模块名称常量
const (
	ModuleMatrix    = "matrix"
	ModuleModel     = "model"
	ModuleRecall    = "recall"
	ModuleStore     = "store"
	ModuleEmbedding = "embedding"
	ModuleProfile   = "profile"
	ModuleEngine    = "engine"
)

// 常用哨兵错误
var (
	// ErrArticleNotFound 表示文章不存在
	ErrArticleNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: article not found")

	// ErrEmbeddingNotFound 表示文章没有预计算向量
	ErrEmbeddingNotFound = NewDomainError(ModuleEmbedding, ErrorCodeNotFound, "embedding: vector not found")

	// ErrUserNotFound 表示用户不在当前交互矩阵中
	ErrUserNotFound = NewDomainError(ModuleModel, ErrorCodeNotFound, "model: user not in matrix")
)

func isCode(err error, code string) bool {
	domainErr := GetDomainError(err)
	return domainErr != nil && domainErr.Code == code
}

// IsNotFound 检查错误是否为 NOT_FOUND。
func IsNotFound(err error) bool {
	return isCode(err, ErrorCodeNotFound)
}

// IsDataUnavailable 检查错误是否为 DATA_UNAVAILABLE。
func IsDataUnavailable(err error) bool {
	return isCode(err, ErrorCodeDataUnavailable)
}

// IsDependencyTimeout 检查错误是否为 DEPENDENCY_TIMEOUT。
func IsDependencyTimeout(err error) bool {
	return isCode(err, ErrorCodeDependencyTimeout)
}
