package testdata

import (
	"github.com/brianvoe/gofakeit/v7"
)

func RandomName() string {
	return gofakeit.Company() + " " + gofakeit.BuzzWord()
}

func RandomDescription() string {
	return gofakeit.Sentence(12)
}

func RandomLabel() string {
	return gofakeit.HipsterWord() + " " + gofakeit.Noun()
}

func RandomEmail() string {
	return gofakeit.Email()
}
