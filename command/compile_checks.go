package command

import gocmd "github.com/goliatone/go-command"

type compileCheckModel struct{}

var (
	_ gocmd.Commander[CreateModelMessage[compileCheckModel]] = (*CreateModelCommand[compileCheckModel, compileCheckModel, compileCheckModel])(nil)
	_ gocmd.Commander[UpdateModelMessage[compileCheckModel]] = (*UpdateModelCommand[compileCheckModel, compileCheckModel, compileCheckModel])(nil)
	_ gocmd.Commander[DeleteModelMessage]                    = (*DeleteModelCommand[compileCheckModel, compileCheckModel, compileCheckModel])(nil)
)
