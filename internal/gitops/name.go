package gitops

import (
	"errors"
	"path"
	"strings"
)

// ErrInvalidURL 无法识别的仓库地址
var ErrInvalidURL = errors.New("无效的仓库URL")

// RepoPath 从远程地址推导host/org/repo形式的相对路径，
// 用作工作副本在根目录下的位置。支持http(s)和scp风格的ssh地址
func RepoPath(url string) (string, error) {
	url = strings.TrimRight(strings.TrimSpace(url), "/")
	if url == "" {
		return "", ErrInvalidURL
	}

	var qualified string
	switch {
	case strings.HasPrefix(url, "http://"), strings.HasPrefix(url, "https://"):
		rest := url[strings.Index(url, "://")+3:]
		parts := strings.Split(rest, "/")
		if len(parts) < 3 {
			return "", ErrInvalidURL
		}
		host, org := parts[0], parts[1]
		repo := strings.TrimSuffix(parts[2], ".git")
		if host == "" || org == "" || repo == "" {
			return "", ErrInvalidURL
		}
		qualified = host + "/" + org + "/" + repo

	case strings.Contains(url, "@"):
		// ssh地址，如 git@github.com:user/repo.git
		parts := strings.SplitN(url, "@", 2)
		hostAndPath := strings.SplitN(parts[1], ":", 2)
		if len(hostAndPath) != 2 || hostAndPath[0] == "" {
			return "", ErrInvalidURL
		}
		host := hostAndPath[0]
		segs := strings.Split(hostAndPath[1], "/")
		switch len(segs) {
		case 1:
			repo := strings.TrimSuffix(segs[0], ".git")
			if repo == "" {
				return "", ErrInvalidURL
			}
			qualified = host + "/" + repo
		case 2:
			repo := strings.TrimSuffix(segs[1], ".git")
			if segs[0] == "" || repo == "" {
				return "", ErrInvalidURL
			}
			qualified = host + "/" + segs[0] + "/" + repo
		default:
			return "", ErrInvalidURL
		}

	default:
		return "", ErrInvalidURL
	}

	// 替换文件系统不允许的字符
	safe := strings.NewReplacer(":", "_", "@", "_").Replace(qualified)
	return safe, nil
}

// RepoName 显示名，取相对路径的最后一段
func RepoName(url string) (string, error) {
	p, err := RepoPath(url)
	if err != nil {
		return "", err
	}
	return path.Base(p), nil
}
