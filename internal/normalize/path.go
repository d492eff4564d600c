// path.go — 路径相对化 (纯前缀剥离)。
package normalize

import "strings"

// RelativizePath 将绝对路径转为项目根相对路径。
//
// root 非空且 path 以 root + "/" 开头时, 剥离该前缀; 否则原样返回。
// 不做 ".." 归一化、不解析符号链接、不做大小写折叠 — 纯字面前缀匹配。
func RelativizePath(path, projectRoot string) string {
	if projectRoot == "" {
		return path
	}
	prefix := projectRoot + "/"
	if strings.HasPrefix(path, prefix) {
		return path[len(prefix):]
	}
	return path
}
