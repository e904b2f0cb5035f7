package errors

import "errors"

// 存储层哨兵错误：由 Repository 在事务内检测并返回，
// Service 层负责翻译为各模块业务错误。

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrDuplicateApplication (applicant_id, drive_id) 唯一索引冲突：同一纳新不可重复报名
var ErrDuplicateApplication = errors.New("已报名该纳新，不能重复提交")

// ErrDriveCapacityFull 纳新报名数已达上限
var ErrDriveCapacityFull = errors.New("纳新报名人数已满")

// ErrDriveWindowClosed 事务内复核时活动已停用或已过截止时间
var ErrDriveWindowClosed = errors.New("活动已停用或已过截止时间")

// ErrClubCapacityFull 社团成员数已达上限
var ErrClubCapacityFull = errors.New("社团成员人数已满")
