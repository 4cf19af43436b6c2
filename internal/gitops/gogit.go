package gitops

import (
	"context"
	"errors"
	"io/fs"
	"net"
	"os"
	"strings"
	"time"

	"gitcloner/pkg/logger"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
)

const remoteName = "origin"

// GoGitAdapter 基于go-git的工作副本适配器
type GoGitAdapter struct {
	timeout time.Duration // clone/fetch的网络超时
}

// NewGoGitAdapter 创建适配器，timeout<=0时不限制
func NewGoGitAdapter(timeout time.Duration) *GoGitAdapter {
	return &GoGitAdapter{timeout: timeout}
}

func (a *GoGitAdapter) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, a.timeout)
}

// IsCloned path下是否已存在工作副本
func (a *GoGitAdapter) IsCloned(path string) bool {
	_, err := git.PlainOpen(path)
	return err == nil
}

// EnsureCloned 不存在时克隆，幂等
func (a *GoGitAdapter) EnsureCloned(ctx context.Context, url, path string) error {
	if a.IsCloned(path) {
		return nil
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	logger.GetLogger().Infof("克隆仓库 %s 到 %s", url, path)
	if _, err := git.PlainCloneContext(ctx, path, false, &git.CloneOptions{
		URL:        url,
		RemoteName: remoteName,
	}); err != nil {
		return classify("clone", err)
	}
	return nil
}

// FetchRefs 拉取远程分支指针，不触碰工作树和本地分支
func (a *GoGitAdapter) FetchRefs(ctx context.Context, path string) (*RefSnapshot, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, classify("open", err)
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	err = repo.FetchContext(ctx, &git.FetchOptions{RemoteName: remoteName})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil, classify("fetch", err)
	}

	return snapshotRemoteRefs(repo)
}

// HasLocalModifications 工作树有未提交修改，或本地分支存在远程没有的提交
func (a *GoGitAdapter) HasLocalModifications(path string, snapshot *RefSnapshot) (bool, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return false, classify("open", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return false, classify("worktree", err)
	}
	status, err := wt.Status()
	if err != nil {
		return false, classify("status", err)
	}
	if !status.IsClean() {
		return true, nil
	}

	// 工作树干净，再检查本地分支是否领先于远程
	head, err := repo.Head()
	if err != nil {
		return false, classify("head", err)
	}
	tip, ok := snapshot.Tip(head.Name().Short())
	if !ok {
		// 远程没有对应分支，本地历史无从比较，视为无本地修改
		return false, nil
	}
	if tip == head.Hash().String() {
		return false, nil
	}

	behindOnly, err := isAncestor(repo, head.Hash(), plumbing.NewHash(tip))
	if err != nil {
		return false, classify("ancestry", err)
	}
	// 本地不是远程tip的祖先，说明存在仅本地可见的提交
	return !behindOnly, nil
}

// CanFastForward 本地分支是否为远程分支tip的祖先（或相等）
func (a *GoGitAdapter) CanFastForward(path string, snapshot *RefSnapshot) (bool, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return false, classify("open", err)
	}

	head, err := repo.Head()
	if err != nil {
		return false, classify("head", err)
	}
	tip, ok := snapshot.Tip(head.Name().Short())
	if !ok {
		return false, nil
	}
	if tip == head.Hash().String() {
		return true, nil
	}

	ff, err := isAncestor(repo, head.Hash(), plumbing.NewHash(tip))
	if err != nil {
		return false, classify("ancestry", err)
	}
	return ff, nil
}

// FastForwardMerge 将本地分支指针和工作树前移到远程tip
func (a *GoGitAdapter) FastForwardMerge(path string, snapshot *RefSnapshot) error {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return classify("open", err)
	}

	head, err := repo.Head()
	if err != nil {
		return classify("head", err)
	}
	branch := head.Name().Short()
	tip, ok := snapshot.Tip(branch)
	if !ok {
		return &AdapterError{Kind: ErrKindProtocol, Op: "merge", Err: errors.New("远程分支不存在: " + branch)}
	}

	// 纯指针前移，提交历史不变
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(branch), plumbing.NewHash(tip))
	if err := repo.Storer.SetReference(ref); err != nil {
		return classify("set-reference", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return classify("worktree", err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Branch: ref.Name(), Force: true}); err != nil {
		return classify("checkout", err)
	}
	return nil
}

// CurrentHead 当前分支名和提交哈希
func (a *GoGitAdapter) CurrentHead(path string) (string, string, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return "", "", classify("open", err)
	}
	head, err := repo.Head()
	if err != nil {
		return "", "", classify("head", err)
	}
	return head.Name().Short(), head.Hash().String(), nil
}

// snapshotRemoteRefs 收集refs/remotes/origin/*下的分支指针
func snapshotRemoteRefs(repo *git.Repository) (*RefSnapshot, error) {
	snap := &RefSnapshot{Heads: make(map[string]string)}

	refs, err := repo.References()
	if err != nil {
		return nil, classify("references", err)
	}
	prefix := "refs/remotes/" + remoteName + "/"
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		name := string(ref.Name())
		if !strings.HasPrefix(name, prefix) {
			return nil
		}
		branch := strings.TrimPrefix(name, prefix)
		if branch == "HEAD" {
			return nil
		}
		snap.Heads[branch] = ref.Hash().String()
		return nil
	})
	if err != nil {
		return nil, classify("references", err)
	}
	return snap, nil
}

// isAncestor older是否为newer的祖先（相等也算）
func isAncestor(repo *git.Repository, older, newer plumbing.Hash) (bool, error) {
	if older == newer {
		return true, nil
	}
	olderCommit, err := repo.CommitObject(older)
	if err != nil {
		return false, err
	}
	newerCommit, err := repo.CommitObject(newer)
	if err != nil {
		return false, err
	}
	return olderCommit.IsAncestor(newerCommit)
}

// classify 将底层错误归类为网络/文件系统/协议错误
func classify(op string, err error) *AdapterError {
	kind := ErrKindProtocol

	var netErr net.Error
	var pathErr *fs.PathError
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed),
		errors.Is(err, transport.ErrRepositoryNotFound),
		errors.As(err, &netErr):
		kind = ErrKindNetwork
	case errors.As(err, &pathErr),
		errors.Is(err, os.ErrPermission),
		errors.Is(err, os.ErrNotExist),
		errors.Is(err, git.ErrRepositoryNotExists):
		kind = ErrKindFilesystem
	}

	return &AdapterError{Kind: kind, Op: op, Err: err}
}
