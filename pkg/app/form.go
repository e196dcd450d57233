package app

import (
	"strings"

	"github.com/notewave/collab-note-service/global"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

// ResResult WebSocket/HTTP 通用响应结果
type ResResult struct {
	Code   int         `json:"code"`
	Status bool        `json:"status"`
	Msg    interface{} `json:"message,omitempty"`
	Data   interface{} `json:"data,omitempty"`
}

// ResDetailsResult 带详情的响应结果
type ResDetailsResult struct {
	Code    int         `json:"code"`
	Status  bool        `json:"status"`
	Msg     interface{} `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// ValidError 参数验证错误
type ValidError struct {
	Key     string
	Message string
}

type ValidErrors []*ValidError

func (v *ValidError) Error() string {
	return v.Message
}

func (v ValidErrors) Error() string {
	return strings.Join(v.Errors(), ",")
}

func (v ValidErrors) Errors() []string {
	var errs []string
	for _, err := range v {
		errs = append(errs, err.Error())
	}
	return errs
}

// BindAndValid 绑定并验证请求参数
func BindAndValid(c *gin.Context, v interface{}) (bool, ValidErrors) {
	var errs ValidErrors

	err := c.ShouldBind(v)
	if err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			trans, _ := c.Value("trans").(ut.Translator)
			for _, verr := range verrs {
				message := verr.Error()
				if trans != nil {
					message = verr.Translate(trans)
				}
				errs = append(errs, &ValidError{
					Key:     verr.Field(),
					Message: message,
				})
			}
		} else {
			errs = append(errs, &ValidError{
				Key:     "body",
				Message: err.Error(),
			})
		}
		return false, errs
	}

	// gin 默认绑定不一定触发自定义验证器，补充一次结构体验证
	if global.Validator != nil {
		if err := global.Validator.Validate.Struct(v); err != nil {
			if verrs, ok := err.(validator.ValidationErrors); ok {
				trans, _ := c.Value("trans").(ut.Translator)
				for _, verr := range verrs {
					message := verr.Error()
					if trans != nil {
						message = verr.Translate(trans)
					}
					errs = append(errs, &ValidError{
						Key:     verr.Field(),
						Message: message,
					})
				}
				return false, errs
			}
		}
	}

	return true, nil
}
