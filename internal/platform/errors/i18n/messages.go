package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeCustomSystemNameEmpty      = "CUSTOM_SYSTEM_NAME_EMPTY"
	CodeCustomSystemNameTooLong    = "CUSTOM_SYSTEM_NAME_TOO_LONG"
	CodeCustomSystemNoGrades       = "CUSTOM_SYSTEM_NO_GRADES"
	CodeCustomSystemGradeNameEmpty = "CUSTOM_SYSTEM_GRADE_NAME_EMPTY"
	CodeCustomSystemDuplicateGrade = "CUSTOM_SYSTEM_DUPLICATE_GRADE"
	CodeCustomSystemInvalidID      = "CUSTOM_SYSTEM_INVALID_ID"
	CodeCustomSystemBuiltinID      = "CUSTOM_SYSTEM_BUILTIN_ID"
	CodeGradeSystemNotFound        = "GRADE_SYSTEM_NOT_FOUND"
	CodeRegistryEmpty              = "GRADE_REGISTRY_EMPTY"
	CodeIdentityMissing            = "IDENTITY_MISSING"
	CodeInvalidRequest             = "INVALID_REQUEST"
	CodeNotFound                   = "NOT_FOUND"
)

var enUSMessages = map[Code]string{
	CodeCustomSystemNameEmpty:      "Grade system name is required.",
	CodeCustomSystemNameTooLong:    "Grade system name must be at most {{.Max}} characters.",
	CodeCustomSystemNoGrades:       "Add at least one grade to the system.",
	CodeCustomSystemGradeNameEmpty: "Every grade needs a name.",
	CodeCustomSystemDuplicateGrade: "Grade names must be unique within a system.",
	CodeCustomSystemInvalidID:      "Grade system identifier is not valid; use letters or digits in the name.",
	CodeCustomSystemBuiltinID:      "Grade system {{.ID}} is builtin and cannot be edited.",
	CodeGradeSystemNotFound:        "Grade system {{.ID}} was not found.",
	CodeRegistryEmpty:              "No grade systems are available.",
	CodeIdentityMissing:            "Sign in to sync grade systems.",
	CodeInvalidRequest:             "The request could not be read.",
	CodeNotFound:                   "Not found.",
}

var ptBRMessages = map[Code]string{
	CodeCustomSystemNameEmpty:      "O nome do sistema de graduação é obrigatório.",
	CodeCustomSystemNameTooLong:    "O nome do sistema deve ter no máximo {{.Max}} caracteres.",
	CodeCustomSystemNoGrades:       "Adicione pelo menos um grau ao sistema.",
	CodeCustomSystemGradeNameEmpty: "Todo grau precisa de um nome.",
	CodeCustomSystemDuplicateGrade: "Os nomes dos graus devem ser únicos no sistema.",
	CodeCustomSystemInvalidID:      "Identificador de sistema inválido; use letras ou dígitos no nome.",
	CodeCustomSystemBuiltinID:      "O sistema {{.ID}} é embutido e não pode ser editado.",
	CodeGradeSystemNotFound:        "Sistema de graduação {{.ID}} não encontrado.",
	CodeRegistryEmpty:              "Nenhum sistema de graduação disponível.",
	CodeIdentityMissing:            "Entre na sua conta para sincronizar os sistemas.",
	CodeInvalidRequest:             "Não foi possível ler a requisição.",
	CodeNotFound:                   "Não encontrado.",
}
