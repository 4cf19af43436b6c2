package gitops

import (
	"context"
	"fmt"
)

// AdapterErrorKind 工作副本操作错误分类
type AdapterErrorKind string

const (
	ErrKindNetwork    AdapterErrorKind = "network"
	ErrKindFilesystem AdapterErrorKind = "filesystem"
	ErrKindProtocol   AdapterErrorKind = "protocol"
)

// AdapterError 工作副本操作错误
type AdapterError struct {
	Kind AdapterErrorKind
	Op   string
	Err  error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("git %s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// RefSnapshot fetch后远程分支指针的快照，不涉及工作树
type RefSnapshot struct {
	// 分支名 -> 提交哈希
	Heads map[string]string
}

// Tip 返回指定分支的远程提交哈希
func (s *RefSnapshot) Tip(branch string) (string, bool) {
	hash, ok := s.Heads[branch]
	return hash, ok
}

// Adapter 工作副本适配器。同步引擎只通过该接口操作本地克隆，
// 所有实现必须保证fastForwardMerge只做指针前移，绝不改写或丢弃提交
type Adapter interface {
	// IsCloned path下是否已存在工作副本
	IsCloned(path string) bool

	// EnsureCloned 不存在时克隆，幂等
	EnsureCloned(ctx context.Context, url, path string) error

	// FetchRefs 拉取远程分支指针，不触碰工作树和本地分支
	FetchRefs(ctx context.Context, path string) (*RefSnapshot, error)

	// HasLocalModifications 工作树有未提交修改，或本地分支存在远程没有的提交
	HasLocalModifications(path string, snapshot *RefSnapshot) (bool, error)

	// CanFastForward 本地分支是否为远程分支tip的祖先（或相等）
	CanFastForward(path string, snapshot *RefSnapshot) (bool, error)

	// FastForwardMerge 将本地分支指针和工作树前移到远程tip
	FastForwardMerge(path string, snapshot *RefSnapshot) error

	// CurrentHead 当前分支名和提交哈希
	CurrentHead(path string) (branch, hash string, err error)
}
