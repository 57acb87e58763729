package zkp

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// ==================== 域元素编解码 ====================
//
// 公开输入在线路上以规范十进制字符串传输。编码必须满足：
// - 对每个可表示的域元素（含加法单位元0）精确往返
// - 无歧义：同一个域元素只有一个合法字符串表示
// - 解码端拒绝任何非规范表示（前导零、非数字字符、超出模数的值）

// EncodeField 将域元素编码为规范十进制字符串
//
// 纯函数，无副作用。必须经过BigInt还原：fr.Element.Text(10)对临近模数
// 的元素输出小负数形式（p-1打印为"-1"），那不是无符号既约表示，
// 解码端会拒绝。BigInt输出始终是[0, p)内的无符号十进制，0编码为"0"。
func EncodeField(v fr.Element) string {
	return v.BigInt(new(big.Int)).String()
}

// DecodeField 将十进制字符串解码为域元素
//
// 拒绝以下输入并返回 ErrBadEncoding：
// - 空字符串或包含非数字字符
// - 带前导零的非规范表示（如 "007"）
// - 大于等于域模数的值
func DecodeField(s string) (fr.Element, error) {
	var el fr.Element

	if s == "" {
		return el, WrapBadEncodingError(0, s)
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return el, WrapBadEncodingError(0, s)
		}
	}
	if len(s) > 1 && s[0] == '0' {
		return el, WrapBadEncodingError(0, s)
	}

	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return el, WrapBadEncodingError(0, s)
	}
	if v.Cmp(fr.Modulus()) >= 0 {
		return el, WrapBadEncodingError(0, s)
	}

	el.SetBigInt(v)
	return el, nil
}

// EncodeFields 按序编码一组域元素
func EncodeFields(values []fr.Element) []string {
	encoded := make([]string, len(values))
	for i, v := range values {
		encoded[i] = EncodeField(v)
	}
	return encoded
}

// DecodeFields 按序解码一组字符串；任一元素解码失败即整体失败
func DecodeFields(values []string) ([]fr.Element, error) {
	decoded := make([]fr.Element, len(values))
	for i, s := range values {
		el, err := DecodeField(s)
		if err != nil {
			return nil, WrapBadEncodingError(i, s)
		}
		decoded[i] = el
	}
	return decoded, nil
}
