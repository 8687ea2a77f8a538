package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// printOutput 按指定格式输出响应数据
func printOutput(w io.Writer, format string, data []byte) error {
	if format == "json" {
		var out bytes.Buffer
		if err := json.Indent(&out, data, "", "  "); err != nil {
			// 非 JSON 数据直接输出
			_, err = fmt.Fprintln(w, string(data))
			return err
		}
		_, err := fmt.Fprintln(w, out.String())
		return err
	}
	// text 模式：直接输出
	_, err := fmt.Fprintln(w, string(data))
	return err
}

// printJSON 序列化后输出
func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// readContent 以 @ 开头时从文件读取内容，否则原样返回
func readContent(v string) (string, error) {
	if !strings.HasPrefix(v, "@") {
		return v, nil
	}
	data, err := os.ReadFile(v[1:])
	if err != nil {
		return "", fmt.Errorf("read %s: %w", v[1:], err)
	}
	return string(data), nil
}
