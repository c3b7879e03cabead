// Package auth 負責身分驗證閘道。
//
// 它簽發與解析 JWT，把憑證轉換為 Identity（使用者 ID 與角色），
// 並以可區分的錯誤種類回報未登入、憑證無效、憑證過期與角色不符。
package auth
