package core

import (
	"errors"
	"fmt"
)

// ErrNoLineAvailable 提供商没有返回任何解析线路
var ErrNoLineAvailable = errors.New("没有可用的解析线路")

// InvalidHierarchyError 验证记录名不在主域名之下
type InvalidHierarchyError struct {
	BaseDomain     string
	ValidationName string
}

func (e *InvalidHierarchyError) Error() string {
	return fmt.Sprintf("验证记录名不以主域名结尾: base_domain=%s, validation_name=%s", e.BaseDomain, e.ValidationName)
}

// ProvisionError 创建验证记录时提供商调用失败
type ProvisionError struct {
	ValidationName string
	Err            error
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("添加验证记录 %s 失败: %v", e.ValidationName, e.Err)
}

func (e *ProvisionError) Unwrap() error {
	return e.Err
}

// CleanupError 删除验证记录时提供商调用失败
type CleanupError struct {
	ValidationName string
	BaseDomain     string
	RecordID       string
	Err            error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("删除验证记录 %s (domain=%s, id=%s) 失败: %v", e.ValidationName, e.BaseDomain, e.RecordID, e.Err)
}

func (e *CleanupError) Unwrap() error {
	return e.Err
}
