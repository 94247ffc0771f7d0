package models

// RegisteredStudent: ученик из реестра (таблица alunos_cadastrados).
// CPF4: последние 4 цифры CPF, используется как второй фактор при отметке.
type RegisteredStudent struct {
	ID         int    `json:"id"`
	Name       string `json:"nome"`
	CPF4       string `json:"cpf4"`
	CallNumber int    `json:"numero_chamada"`
}
