package pxp

import (
	"github.com/pxp-lang/pxp-sub001/internal/entity"
	"github.com/pxp-lang/pxp-sub001/internal/index"
	"github.com/pxp-lang/pxp-sub001/internal/types"
)

// Public type aliases for the internal types returned by the Indexer.

type Index = index.Index
type FunctionEntity = entity.FunctionEntity
type Parameter = entity.Parameter
type Location = entity.Location
type File = entity.File
type Type = types.Type
