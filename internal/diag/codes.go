package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Разбор исходников
	SynInfo             Code = 1000
	SynParseError       Code = 1001
	SynUnsupportedJSX   Code = 1002
	SynMissingReturn    Code = 1003
	SynUnsupportedBind  Code = 1004
	SynMultipleDefaults Code = 1005

	// Граница директивы "use client"
	DirInfo          Code = 2000
	DirRuntimeImport Code = 2001
	DirEventAttr     Code = 2002

	// Резолвер компонентов
	ResInfo             Code = 3000
	ResCycle            Code = 3001
	ResUnknownComponent Code = 3002
	ResMissingExport    Code = 3003
	ResDuplicateName    Code = 3004
	ResFileNotFound     Code = 3005

	// Генерация клиентского кода
	GenInfo              Code = 4000
	GenIndeterminatePath Code = 4001
	GenListWithoutKey    Code = 4002
	GenInertEvent        Code = 4003
	GenFrozenBlock       Code = 4004

	// IO
	IOInfo          Code = 5000
	IOLoadFileError Code = 5001
	IOWriteError    Code = 5002
	IOCacheCorrupt  Code = 5003

	// Проект и конфигурация
	PrjInfo         Code = 6000
	PrjConfigError  Code = 6001
	PrjImportCycle  Code = 6002
	PrjMissingEntry Code = 6003

	// Наблюдаемость
	ObsInfo    Code = 7000
	ObsTimings Code = 7001

	// Аудит гидратации
	HydInfo            Code = 8000
	HydMissingPayload  Code = 8001
	HydBadPayload      Code = 8002
	HydMalformedMarker Code = 8003
	HydDuplicateScope  Code = 8004
	HydUnknownType     Code = 8005
)

var codeDescription = map[Code]string{
	UnknownCode:          "Unknown error",
	SynInfo:              "Parser information",
	SynParseError:        "Source does not parse",
	SynUnsupportedJSX:    "Unsupported JSX construct",
	SynMissingReturn:     "Component does not return JSX",
	SynUnsupportedBind:   "Unsupported binding expression",
	SynMultipleDefaults:  "More than one default export",
	DirInfo:              "Client directive information",
	DirRuntimeImport:     "Reactive runtime imported without \"use client\"",
	DirEventAttr:         "Event handler attribute used without \"use client\"",
	ResInfo:              "Resolver information",
	ResCycle:             "Component dependency cycle",
	ResUnknownComponent:  "Unknown component",
	ResMissingExport:     "Imported component is not exported",
	ResDuplicateName:     "Duplicate component name in file",
	ResFileNotFound:      "Component source not found",
	GenInfo:              "Code generator information",
	GenIndeterminatePath: "Binding resolved through scoped query",
	GenListWithoutKey:    "List rendered without key",
	GenInertEvent:        "Event handler on server-only component",
	GenFrozenBlock:       "Block inside a list item is not updated",
	IOInfo:               "I/O information",
	IOLoadFileError:      "I/O load file error",
	IOWriteError:         "I/O write error",
	IOCacheCorrupt:       "Build cache entry is corrupt",
	PrjInfo:              "Project information",
	PrjConfigError:       "Invalid weft.toml",
	PrjImportCycle:       "Import cycle between source files",
	PrjMissingEntry:      "Entry file does not exist",
	ObsInfo:              "Observability information",
	ObsTimings:           "Phase timings",
	HydInfo:              "Hydration information",
	HydMissingPayload:    "Scope has no props payload",
	HydBadPayload:        "Props payload is not valid JSON",
	HydMalformedMarker:   "Malformed scope marker",
	HydDuplicateScope:    "Duplicate scope marker",
	HydUnknownType:       "Scope references an unknown component",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("DIR%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("RES%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("GEN%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 7000 && ic < 8000:
		return fmt.Sprintf("OBS%04d", ic)
	case ic >= 8000 && ic < 9000:
		return fmt.Sprintf("HYD%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
