package query

import gocmd "github.com/goliatone/go-command"

type compileCheckModel struct{}

var (
	_ gocmd.Querier[ReadModelMessage, *compileCheckModel]  = (*ReadModelQuery[compileCheckModel])(nil)
	_ gocmd.Querier[QueryModelMessage, []compileCheckModel] = (*QueryModelQuery[compileCheckModel])(nil)
)
