package global

import (
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTrans "github.com/go-playground/validator/v10/translations/en"
	zhTrans "github.com/go-playground/validator/v10/translations/zh"
)

// CustomValidator 全局验证器，携带多语言翻译器
type CustomValidator struct {
	Validate *validator.Validate
	Uni      *ut.UniversalTranslator
}

var Validator *CustomValidator

// NewValidator 创建验证器并注册 en/zh 翻译
func NewValidator() *CustomValidator {
	enLocale := en.New()
	zhLocale := zh.New()
	uni := ut.New(enLocale, enLocale, zhLocale)

	v := validator.New()

	if trans, ok := uni.GetTranslator("en"); ok {
		_ = enTrans.RegisterDefaultTranslations(v, trans)
	}
	if trans, ok := uni.GetTranslator("zh"); ok {
		_ = zhTrans.RegisterDefaultTranslations(v, trans)
	}

	return &CustomValidator{
		Validate: v,
		Uni:      uni,
	}
}
