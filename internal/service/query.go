package service

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"userapi/internal/apperr"
	"userapi/internal/entity"
)

// 列表查询默认值
const (
	DefaultPage      = 1
	DefaultLimit     = 10
	DefaultSortBy    = entity.UserSortCreatedAt
	DefaultSortOrder = SortDesc

	SortAsc  = "asc"
	SortDesc = "desc"
)

// ListOptions 用户列表的分页、搜索与排序参数
type ListOptions struct {
	Page         int
	Limit        int
	Search       string
	SortBy       string
	SortOrder    string
	IncludeRoles bool
	IncludePosts bool
}

// DefaultListOptions 返回全部取默认值的参数
func DefaultListOptions() ListOptions {
	return ListOptions{
		Page:         DefaultPage,
		Limit:        DefaultLimit,
		SortBy:       DefaultSortBy,
		SortOrder:    DefaultSortOrder,
		IncludeRoles: true,
		IncludePosts: true,
	}
}

// ParseListQuery 解析查询字符串。缺省参数取默认值，无法解释的参数返回 InvalidQuery。
func ParseListQuery(values url.Values, maxPageSize int) (ListOptions, error) {
	opts := DefaultListOptions()
	var err error

	if raw, ok := lookup(values, "page"); ok {
		if opts.Page, err = parsePositive("page", raw); err != nil {
			return ListOptions{}, err
		}
	}
	if raw, ok := lookup(values, "limit"); ok {
		if opts.Limit, err = parsePositive("limit", raw); err != nil {
			return ListOptions{}, err
		}
	}
	if raw, ok := values["search"]; ok && len(raw) > 0 {
		opts.Search = strings.TrimSpace(raw[0])
	}
	if raw, ok := lookup(values, "sortBy"); ok {
		opts.SortBy = raw
	}
	if raw, ok := lookup(values, "sortOrder"); ok {
		opts.SortOrder = strings.ToLower(raw)
	}
	if raw, ok := lookup(values, "includeRoles"); ok {
		if opts.IncludeRoles, err = parseFlag("includeRoles", raw); err != nil {
			return ListOptions{}, err
		}
	}
	if raw, ok := lookup(values, "includePosts"); ok {
		if opts.IncludePosts, err = parseFlag("includePosts", raw); err != nil {
			return ListOptions{}, err
		}
	}

	if err := opts.Validate(maxPageSize); err != nil {
		return ListOptions{}, err
	}
	return opts, nil
}

// Validate 校验参数取值。maxPageSize <= 0 表示不限制 limit。
func (o ListOptions) Validate(maxPageSize int) error {
	if o.Page < 1 {
		return apperr.InvalidQuery("Invalid page parameter: must be a positive integer")
	}
	if o.Limit < 1 {
		return apperr.InvalidQuery("Invalid limit parameter: must be a positive integer")
	}
	if maxPageSize > 0 && o.Limit > maxPageSize {
		return apperr.InvalidQuery("Invalid limit parameter: must not exceed %d", maxPageSize)
	}
	// (page-1)*limit 必须能用 int 表示
	if o.Page-1 > math.MaxInt/o.Limit {
		return apperr.InvalidQuery("Invalid page parameter: page is out of range")
	}
	if _, ok := entity.UserSortColumns[o.SortBy]; !ok {
		return apperr.InvalidQuery("Invalid sortBy parameter: %q is not a sortable field", o.SortBy)
	}
	if o.SortOrder != SortAsc && o.SortOrder != SortDesc {
		return apperr.InvalidQuery("Invalid sortOrder parameter: must be asc or desc")
	}
	return nil
}

// Offset 当前页之前需要跳过的记录数
func (o ListOptions) Offset() int {
	return (o.Page - 1) * o.Limit
}

// Filter 转换为仓库层的查询条件
func (o ListOptions) Filter() entity.UserFilter {
	return entity.UserFilter{
		Search:   o.Search,
		SortBy:   o.SortBy,
		SortDesc: o.SortOrder == SortDesc,
		Offset:   o.Offset(),
		Limit:    o.Limit,
		Include: entity.UserIncludes{
			Roles: o.IncludeRoles,
			Posts: o.IncludePosts,
		},
	}
}

// lookup 返回第一个非空值
func lookup(values url.Values, key string) (string, bool) {
	raw, ok := values[key]
	if !ok || len(raw) == 0 {
		return "", false
	}
	value := strings.TrimSpace(raw[0])
	return value, value != ""
}

func parsePositive(name, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apperr.InvalidQuery("Invalid %s parameter: must be a positive integer", name)
	}
	return n, nil
}

func parseFlag(name, raw string) (bool, error) {
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperr.InvalidQuery("Invalid %s parameter: must be true or false", name)
	}
	return v, nil
}
