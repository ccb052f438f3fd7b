package domain

// PageRequest 列表查询的分页请求参数
type PageRequest struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Pagination 后端返回的分页信息
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Filters 列表过滤条件（key→value，空字符串视为未设置）
type Filters map[string]string

// Clone 返回过滤条件的独立副本
func (f Filters) Clone() Filters {
	if f == nil {
		return nil
	}
	out := make(Filters, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Active 返回只包含非空值的过滤条件（用于构建查询参数）
func (f Filters) Active() Filters {
	out := make(Filters)
	for k, v := range f {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// Fields 创建/更新操作的字段集合（partial field set）
type Fields map[string]any
